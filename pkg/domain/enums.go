package domain

// EntityType identifies the kind of entity held by the domain store.
type EntityType string

// Supported entity type identifiers used in Change records and error values.
const (
	// EntityMedicalRecord identifies a clinical encounter record.
	EntityMedicalRecord EntityType = "medical_record"
	// EntityPrescription identifies a medication order.
	EntityPrescription EntityType = "prescription"
	// EntityUploadedFile identifies attachment metadata.
	EntityUploadedFile EntityType = "uploaded_file"
)

// Durable slot names. Existing persisted data is keyed by these values, so they
// must not change.
const (
	CollectionMedicalRecords = "medicalRecords"
	CollectionPrescriptions  = "prescriptions"
	CollectionUploadedFiles  = "uploadedFiles"
)

// Collection returns the durable slot name backing the entity type.
func (e EntityType) Collection() string {
	switch e {
	case EntityMedicalRecord:
		return CollectionMedicalRecords
	case EntityPrescription:
		return CollectionPrescriptions
	case EntityUploadedFile:
		return CollectionUploadedFiles
	default:
		return ""
	}
}

// RecordStatus controls default list visibility of a medical record.
type RecordStatus string

// Medical record statuses.
const (
	RecordStatusActive   RecordStatus = "active"
	RecordStatusDraft    RecordStatus = "draft"
	RecordStatusArchived RecordStatus = "archived"
)

// IsValid reports whether the status belongs to the declared set.
func (s RecordStatus) IsValid() bool {
	switch s {
	case RecordStatusActive, RecordStatusDraft, RecordStatusArchived:
		return true
	}
	return false
}

// RecordType categorises the encounter a record documents.
type RecordType string

// Medical record categories.
const (
	RecordTypeOutpatient  RecordType = "outpatient"
	RecordTypeInpatient   RecordType = "inpatient"
	RecordTypeEmergency   RecordType = "emergency"
	RecordTypeExamination RecordType = "examination"
	RecordTypeSurgery     RecordType = "surgery"
)

// IsValid reports whether the record type belongs to the declared set.
func (t RecordType) IsValid() bool {
	switch t {
	case RecordTypeOutpatient, RecordTypeInpatient, RecordTypeEmergency, RecordTypeExamination, RecordTypeSurgery:
		return true
	}
	return false
}

// PrescriptionStatus is the forward-only lifecycle of a medication order.
type PrescriptionStatus string

// Prescription statuses in lifecycle order.
const (
	PrescriptionStatusDraft     PrescriptionStatus = "draft"
	PrescriptionStatusIssued    PrescriptionStatus = "issued"
	PrescriptionStatusDispensed PrescriptionStatus = "dispensed"
	PrescriptionStatusCompleted PrescriptionStatus = "completed"
)

// IsValid reports whether the status belongs to the declared set.
func (s PrescriptionStatus) IsValid() bool {
	switch s {
	case PrescriptionStatusDraft, PrescriptionStatusIssued, PrescriptionStatusDispensed, PrescriptionStatusCompleted:
		return true
	}
	return false
}

// Next returns the status that follows s, or false when s is terminal.
func (s PrescriptionStatus) Next() (PrescriptionStatus, bool) {
	switch s {
	case PrescriptionStatusDraft:
		return PrescriptionStatusIssued, true
	case PrescriptionStatusIssued:
		return PrescriptionStatusDispensed, true
	case PrescriptionStatusDispensed:
		return PrescriptionStatusCompleted, true
	}
	return "", false
}

// UploadStatus tracks the transfer state of an attachment payload.
type UploadStatus string

// Upload statuses. Completed and failed are terminal.
const (
	UploadStatusUploading UploadStatus = "uploading"
	UploadStatusCompleted UploadStatus = "completed"
	UploadStatusFailed    UploadStatus = "failed"
)

// IsValid reports whether the status belongs to the declared set.
func (s UploadStatus) IsValid() bool {
	switch s {
	case UploadStatusUploading, UploadStatusCompleted, UploadStatusFailed:
		return true
	}
	return false
}

// Role is the caller role supplied by the authentication collaborator. The set
// is open; only RolePatient narrows visibility.
type Role string

// Known caller roles.
const (
	RolePatient    Role = "patient"
	RoleDoctor     Role = "doctor"
	RoleNurse      Role = "nurse"
	RolePharmacist Role = "pharmacist"
	RoleAdmin      Role = "admin"
)

// Action indicates the type of modification performed.
type Action string

// Change actions captured for rule evaluation.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)
