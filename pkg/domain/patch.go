package domain

// MedicalRecordPatch is a partial update. Nil fields are left untouched; id,
// patientId and createdAt cannot be patched.
type MedicalRecordPatch struct {
	PatientName    *string       `json:"patientName,omitempty"`
	PatientAge     *int          `json:"patientAge,omitempty"`
	RecordType     *RecordType   `json:"recordType,omitempty"`
	Department     *string       `json:"department,omitempty"`
	ChiefComplaint *string       `json:"chiefComplaint,omitempty"`
	PresentIllness *string       `json:"presentIllness,omitempty"`
	PastHistory    *string       `json:"pastHistory,omitempty"`
	PhysicalExam   *string       `json:"physicalExam,omitempty"`
	Diagnosis      *string       `json:"diagnosis,omitempty"`
	Treatment      *string       `json:"treatment,omitempty"`
	Notes          *string       `json:"notes,omitempty"`
	Attachments    *[]string     `json:"attachments,omitempty"`
	Status         *RecordStatus `json:"status,omitempty"`
	DoctorName     *string       `json:"doctorName,omitempty"`
}

// Apply merges the patch into r.
func (p MedicalRecordPatch) Apply(r *MedicalRecord) {
	setIf(&r.PatientName, p.PatientName)
	setIf(&r.PatientAge, p.PatientAge)
	setIf(&r.RecordType, p.RecordType)
	setIf(&r.Department, p.Department)
	setIf(&r.ChiefComplaint, p.ChiefComplaint)
	setIf(&r.PresentIllness, p.PresentIllness)
	setIf(&r.PastHistory, p.PastHistory)
	setIf(&r.PhysicalExam, p.PhysicalExam)
	setIf(&r.Diagnosis, p.Diagnosis)
	setIf(&r.Treatment, p.Treatment)
	setIf(&r.Notes, p.Notes)
	if p.Attachments != nil {
		r.Attachments = append(make([]string, 0, len(*p.Attachments)), *p.Attachments...)
	}
	setIf(&r.Status, p.Status)
	setIf(&r.DoctorName, p.DoctorName)
}

// PrescriptionPatch is a partial update of a prescription.
type PrescriptionPatch struct {
	PatientName  *string             `json:"patientName,omitempty"`
	PatientAge   *int                `json:"patientAge,omitempty"`
	Medications  *[]Medication       `json:"medications,omitempty"`
	Status       *PrescriptionStatus `json:"status,omitempty"`
	Diagnosis    *string             `json:"diagnosis,omitempty"`
	Notes        *string             `json:"notes,omitempty"`
	DoctorAdvice *string             `json:"doctorAdvice,omitempty"`
	DoctorName   *string             `json:"doctorName,omitempty"`
}

// Apply merges the patch into p.
func (patch PrescriptionPatch) Apply(p *Prescription) {
	setIf(&p.PatientName, patch.PatientName)
	setIf(&p.PatientAge, patch.PatientAge)
	if patch.Medications != nil {
		p.Medications = append(make([]Medication, 0, len(*patch.Medications)), *patch.Medications...)
	}
	setIf(&p.Status, patch.Status)
	setIf(&p.Diagnosis, patch.Diagnosis)
	setIf(&p.Notes, patch.Notes)
	setIf(&p.DoctorAdvice, patch.DoctorAdvice)
	setIf(&p.DoctorName, patch.DoctorName)
}

// UploadedFilePatch is a partial update of attachment metadata, typically
// issued by the payload uploader as a transfer progresses.
type UploadedFilePatch struct {
	Name        *string       `json:"name,omitempty"`
	Size        *int64        `json:"size,omitempty"`
	Type        *string       `json:"type,omitempty"`
	Status      *UploadStatus `json:"status,omitempty"`
	Progress    *int          `json:"progress,omitempty"`
	IPFSHash    *string       `json:"ipfsHash,omitempty"`
	URL         *string       `json:"url,omitempty"`
	ContentHash *string       `json:"contentHash,omitempty"`
}

// Apply merges the patch into f.
func (p UploadedFilePatch) Apply(f *UploadedFile) {
	setIf(&f.Name, p.Name)
	setIf(&f.Size, p.Size)
	setIf(&f.Type, p.Type)
	setIf(&f.Status, p.Status)
	setIf(&f.Progress, p.Progress)
	setIf(&f.IPFSHash, p.IPFSHash)
	setIf(&f.URL, p.URL)
	setIf(&f.ContentHash, p.ContentHash)
}

// Ptr returns a pointer to v; handy for building patches.
func Ptr[T any](v T) *T { return &v }

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
