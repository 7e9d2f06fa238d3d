// Package domain defines the medical record entities, value types, access
// filtering and rule evaluation primitives shared by every store consumer.
package domain

import (
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar-date format used for createdAt and uploadDate.
const DateLayout = "2006-01-02"

// FormatDate renders t as a date stamp.
func FormatDate(t time.Time) string { return t.Format(DateLayout) }

// MedicalRecord represents one clinical encounter. PatientID is the
// authoritative join key; PatientName and PatientAge are a display cache.
type MedicalRecord struct {
	ID             string       `json:"id"`
	PatientID      string       `json:"patientId"`
	PatientName    string       `json:"patientName"`
	PatientAge     int          `json:"patientAge"`
	RecordType     RecordType   `json:"recordType,omitempty"`
	Department     string       `json:"department,omitempty"`
	ChiefComplaint string       `json:"chiefComplaint"`
	PresentIllness string       `json:"presentIllness,omitempty"`
	PastHistory    string       `json:"pastHistory,omitempty"`
	PhysicalExam   string       `json:"physicalExam,omitempty"`
	Diagnosis      string       `json:"diagnosis"`
	Treatment      string       `json:"treatment,omitempty"`
	Notes          string       `json:"notes,omitempty"`
	Attachments    []string     `json:"attachments"`
	Status         RecordStatus `json:"status"`
	CreatedAt      string       `json:"createdAt"`
	DoctorName     string       `json:"doctorName,omitempty"`
}

// Medication is a single line of a prescription. It holds no references.
type Medication struct {
	Name          string `json:"name"`
	Specification string `json:"specification,omitempty"`
	Dosage        string `json:"dosage,omitempty"`
	Frequency     string `json:"frequency,omitempty"`
	Duration      string `json:"duration,omitempty"`
	Quantity      int    `json:"quantity"`
	Unit          string `json:"unit,omitempty"`
	Instructions  string `json:"instructions,omitempty"`
}

// Prescription represents one medication order.
type Prescription struct {
	ID           string             `json:"id"`
	PatientID    string             `json:"patientId"`
	PatientName  string             `json:"patientName"`
	PatientAge   int                `json:"patientAge"`
	Medications  []Medication       `json:"medications"`
	Status       PrescriptionStatus `json:"status"`
	Diagnosis    string             `json:"diagnosis,omitempty"`
	Notes        string             `json:"notes,omitempty"`
	DoctorAdvice string             `json:"doctorAdvice,omitempty"`
	CreatedAt    string             `json:"createdAt"`
	DoctorName   string             `json:"doctorName,omitempty"`
}

// UploadedFile is attachment metadata. The payload itself lives in a blob store.
type UploadedFile struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Size        int64        `json:"size"`
	Type        string       `json:"type"`
	UploadDate  string       `json:"uploadDate"`
	Status      UploadStatus `json:"status"`
	Progress    int          `json:"progress"`
	IPFSHash    string       `json:"ipfsHash,omitempty"`
	URL         string       `json:"url,omitempty"`
	ContentHash string       `json:"contentHash,omitempty"`
}

// Validate checks required fields and enum membership.
func (r MedicalRecord) Validate() error {
	if err := requireField(EntityMedicalRecord, r.ID, "id", r.ID); err != nil {
		return err
	}
	if err := requireField(EntityMedicalRecord, r.ID, "patientId", r.PatientID); err != nil {
		return err
	}
	if err := requireField(EntityMedicalRecord, r.ID, "chiefComplaint", r.ChiefComplaint); err != nil {
		return err
	}
	if err := requireField(EntityMedicalRecord, r.ID, "diagnosis", r.Diagnosis); err != nil {
		return err
	}
	if !r.Status.IsValid() {
		return EnumError{Entity: EntityMedicalRecord, ID: r.ID, Field: "status", Value: string(r.Status)}
	}
	if r.RecordType != "" && !r.RecordType.IsValid() {
		return EnumError{Entity: EntityMedicalRecord, ID: r.ID, Field: "recordType", Value: string(r.RecordType)}
	}
	if r.PatientAge < 0 {
		return ValidationError{Entity: EntityMedicalRecord, ID: r.ID, Field: "patientAge", Reason: "must not be negative"}
	}
	for _, fileID := range r.Attachments {
		if strings.TrimSpace(fileID) == "" {
			return ValidationError{Entity: EntityMedicalRecord, ID: r.ID, Field: "attachments", Reason: "contains an empty file id"}
		}
	}
	return nil
}

// Validate checks required fields, enum membership and the draft-only empty
// medications invariant.
func (p Prescription) Validate() error {
	if err := requireField(EntityPrescription, p.ID, "id", p.ID); err != nil {
		return err
	}
	if err := requireField(EntityPrescription, p.ID, "patientId", p.PatientID); err != nil {
		return err
	}
	if !p.Status.IsValid() {
		return EnumError{Entity: EntityPrescription, ID: p.ID, Field: "status", Value: string(p.Status)}
	}
	if len(p.Medications) == 0 && p.Status != PrescriptionStatusDraft {
		return ValidationError{Entity: EntityPrescription, ID: p.ID, Field: "medications", Reason: "may only be empty while status is draft"}
	}
	for i, m := range p.Medications {
		if strings.TrimSpace(m.Name) == "" {
			return ValidationError{Entity: EntityPrescription, ID: p.ID, Field: "medications", Reason: "medication " + strconv.Itoa(i) + " has no name"}
		}
		if m.Quantity < 0 {
			return ValidationError{Entity: EntityPrescription, ID: p.ID, Field: "medications", Reason: "medication " + strconv.Itoa(i) + " has a negative quantity"}
		}
	}
	if p.PatientAge < 0 {
		return ValidationError{Entity: EntityPrescription, ID: p.ID, Field: "patientAge", Reason: "must not be negative"}
	}
	return nil
}

// Validate checks required fields, enum membership and the progress/status
// coupling: progress is 100 exactly when the upload completed, and a locator
// is only present on completed uploads.
func (f UploadedFile) Validate() error {
	if err := requireField(EntityUploadedFile, f.ID, "id", f.ID); err != nil {
		return err
	}
	if err := requireField(EntityUploadedFile, f.ID, "name", f.Name); err != nil {
		return err
	}
	if !f.Status.IsValid() {
		return EnumError{Entity: EntityUploadedFile, ID: f.ID, Field: "status", Value: string(f.Status)}
	}
	if f.Size < 0 {
		return ValidationError{Entity: EntityUploadedFile, ID: f.ID, Field: "size", Reason: "must not be negative"}
	}
	if f.Progress < 0 || f.Progress > 100 {
		return ValidationError{Entity: EntityUploadedFile, ID: f.ID, Field: "progress", Reason: "must be within 0-100"}
	}
	if (f.Progress == 100) != (f.Status == UploadStatusCompleted) {
		return ValidationError{Entity: EntityUploadedFile, ID: f.ID, Field: "progress", Reason: "must be 100 exactly when status is completed"}
	}
	if f.Status != UploadStatusCompleted && (f.IPFSHash != "" || f.URL != "" || f.ContentHash != "") {
		return ValidationError{Entity: EntityUploadedFile, ID: f.ID, Field: "url", Reason: "locator is only allowed on completed uploads"}
	}
	return nil
}

// Clone returns a deep copy of the record.
func (r MedicalRecord) Clone() MedicalRecord {
	if r.Attachments != nil {
		attachments := make([]string, len(r.Attachments))
		copy(attachments, r.Attachments)
		r.Attachments = attachments
	}
	return r
}

// Clone returns a deep copy of the prescription.
func (p Prescription) Clone() Prescription {
	if p.Medications != nil {
		medications := make([]Medication, len(p.Medications))
		copy(medications, p.Medications)
		p.Medications = medications
	}
	return p
}

// Clone returns a copy of the file metadata.
func (f UploadedFile) Clone() UploadedFile { return f }

func requireField(entity EntityType, id, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError{Entity: entity, ID: id, Field: field, Reason: "is required"}
	}
	return nil
}
