package core

import "medportal/pkg/domain"

// Sample data used when a collection slot is missing or unreadable. Each call
// returns fresh slices so stores never share backing arrays.

func sampleMedicalRecords() []domain.MedicalRecord {
	return []domain.MedicalRecord{
		{
			ID:             "MR001",
			PatientID:      "P001",
			PatientName:    "Zhang Wei",
			PatientAge:     45,
			RecordType:     domain.RecordTypeOutpatient,
			Department:     "Internal Medicine",
			ChiefComplaint: "Cough and fever for three days",
			PresentIllness: "Dry cough with evening fever up to 38.5C, no chest pain.",
			PastHistory:    "Hypertension, controlled.",
			PhysicalExam:   "Scattered wet rales in the right lower lung.",
			Diagnosis:      "Community-acquired pneumonia",
			Treatment:      "Oral antibiotics and antipyretics, review in one week.",
			Attachments:    []string{"F001"},
			Status:         domain.RecordStatusActive,
			CreatedAt:      "2024-01-15",
			DoctorName:     "Dr. Li",
		},
		{
			ID:             "MR002",
			PatientID:      "P002",
			PatientName:    "Wang Fang",
			PatientAge:     32,
			RecordType:     domain.RecordTypeExamination,
			Department:     "Cardiology",
			ChiefComplaint: "Intermittent palpitations",
			PhysicalExam:   "Regular rhythm, no murmurs.",
			Diagnosis:      "Sinus tachycardia",
			Treatment:      "Lifestyle advice, Holter monitoring.",
			Attachments:    []string{"F002"},
			Status:         domain.RecordStatusActive,
			CreatedAt:      "2024-01-18",
			DoctorName:     "Dr. Chen",
		},
		{
			ID:             "MR003",
			PatientID:      "P001",
			PatientName:    "Zhang Wei",
			PatientAge:     45,
			RecordType:     domain.RecordTypeOutpatient,
			Department:     "Internal Medicine",
			ChiefComplaint: "Follow-up after pneumonia",
			Diagnosis:      "Pneumonia, resolving",
			Notes:          "Chest film pending.",
			Attachments:    []string{},
			Status:         domain.RecordStatusDraft,
			CreatedAt:      "2024-01-22",
			DoctorName:     "Dr. Li",
		},
	}
}

func samplePrescriptions() []domain.Prescription {
	return []domain.Prescription{
		{
			ID:          "RX001",
			PatientID:   "P001",
			PatientName: "Zhang Wei",
			PatientAge:  45,
			Medications: []domain.Medication{
				{Name: "Amoxicillin", Specification: "500mg", Dosage: "500mg", Frequency: "three times daily", Duration: "7 days", Quantity: 21, Unit: "capsule", Instructions: "after meals"},
				{Name: "Ibuprofen", Specification: "200mg", Dosage: "200mg", Frequency: "as needed", Duration: "3 days", Quantity: 6, Unit: "tablet", Instructions: "only above 38.5C"},
			},
			Status:       domain.PrescriptionStatusIssued,
			Diagnosis:    "Community-acquired pneumonia",
			DoctorAdvice: "Drink plenty of water and rest.",
			CreatedAt:    "2024-01-15",
			DoctorName:   "Dr. Li",
		},
		{
			ID:          "RX002",
			PatientID:   "P002",
			PatientName: "Wang Fang",
			PatientAge:  32,
			Medications: []domain.Medication{
				{Name: "Metoprolol", Specification: "25mg", Dosage: "12.5mg", Frequency: "twice daily", Duration: "14 days", Quantity: 14, Unit: "tablet"},
			},
			Status:     domain.PrescriptionStatusDispensed,
			Diagnosis:  "Sinus tachycardia",
			CreatedAt:  "2024-01-18",
			DoctorName: "Dr. Chen",
		},
		{
			ID:          "RX003",
			PatientID:   "P001",
			PatientName: "Zhang Wei",
			PatientAge:  45,
			Medications: []domain.Medication{},
			Status:      domain.PrescriptionStatusDraft,
			Notes:       "Awaiting chest film.",
			CreatedAt:   "2024-01-22",
			DoctorName:  "Dr. Li",
		},
	}
}

func sampleUploadedFiles() []domain.UploadedFile {
	return []domain.UploadedFile{
		{
			ID:         "F001",
			Name:       "chest-xray.png",
			Size:       524288,
			Type:       "image/png",
			UploadDate: "2024-01-15",
			Status:     domain.UploadStatusCompleted,
			Progress:   100,
			IPFSHash:   "QmSampleChestXray",
			URL:        "medical-files/F001/chest-xray.png",
		},
		{
			ID:         "F002",
			Name:       "ecg-report.pdf",
			Size:       131072,
			Type:       "application/pdf",
			UploadDate: "2024-01-18",
			Status:     domain.UploadStatusCompleted,
			Progress:   100,
			URL:        "medical-files/F002/ecg-report.pdf",
		},
	}
}
