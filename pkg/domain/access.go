package domain

import "strings"

// Caller is the authenticated user descriptor supplied by the session layer.
// The store neither validates nor owns it.
type Caller struct {
	Identity string `json:"identity"`
	Role     Role   `json:"role"`
}

// matchesPatient reports whether a patient caller may see an entity carrying
// the given patient linkage. Both the id and the display name are accepted.
func (c Caller) matchesPatient(patientID, patientName string) bool {
	return patientName == c.Identity || patientID == c.Identity
}

// VisibleRecords narrows records to what caller may see. Patients see records
// whose patientName or patientId equals their identity; every other role sees
// the input unchanged. The result must be recomputed whenever either input
// changes.
func VisibleRecords(records []MedicalRecord, caller Caller) []MedicalRecord {
	if caller.Role != RolePatient {
		return records
	}
	out := make([]MedicalRecord, 0, len(records))
	for _, r := range records {
		if caller.matchesPatient(r.PatientID, r.PatientName) {
			out = append(out, r)
		}
	}
	return out
}

// VisiblePrescriptions applies the VisibleRecords rule to prescriptions.
func VisiblePrescriptions(prescriptions []Prescription, caller Caller) []Prescription {
	if caller.Role != RolePatient {
		return prescriptions
	}
	out := make([]Prescription, 0, len(prescriptions))
	for _, p := range prescriptions {
		if caller.matchesPatient(p.PatientID, p.PatientName) {
			out = append(out, p)
		}
	}
	return out
}

// IsRecordOwner reports whether identity is the record's patient or author.
func IsRecordOwner(record MedicalRecord, identity string) bool {
	if identity == "" {
		return false
	}
	return identity == record.PatientID || identity == record.DoctorName
}

// RecordQuery holds the list-view filters dashboards apply after the access
// filter. Zero values match everything.
type RecordQuery struct {
	Search     string
	Status     RecordStatus
	Department string
}

// Apply returns the records matching every populated filter, preserving order.
// Search is a case-insensitive substring match over patient name, patient id,
// diagnosis, chief complaint and record id.
func (q RecordQuery) Apply(records []MedicalRecord) []MedicalRecord {
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]MedicalRecord, 0, len(records))
	for _, r := range records {
		if q.Status != "" && r.Status != q.Status {
			continue
		}
		if q.Department != "" && !strings.EqualFold(r.Department, q.Department) {
			continue
		}
		if needle != "" && !containsFold(needle, r.PatientName, r.PatientID, r.Diagnosis, r.ChiefComplaint, r.ID) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func containsFold(needle string, haystacks ...string) bool {
	for _, h := range haystacks {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}
