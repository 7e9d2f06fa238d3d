package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func accessFixture() []MedicalRecord {
	return []MedicalRecord{
		{ID: "MR1", PatientID: "P1", PatientName: "Alice", Diagnosis: "flu", ChiefComplaint: "fever", Status: RecordStatusActive, Department: "Internal Medicine"},
		{ID: "MR2", PatientID: "P2", PatientName: "Bob", Diagnosis: "fracture", ChiefComplaint: "pain", Status: RecordStatusArchived, Department: "Orthopedics"},
		{ID: "MR3", PatientID: "P3", PatientName: "P1", Diagnosis: "migraine", ChiefComplaint: "headache", Status: RecordStatusDraft, Department: "Neurology"},
	}
}

func TestVisibleRecordsPatientSeesOwnRecords(t *testing.T) {
	records := []MedicalRecord{
		{ID: "MR1", PatientID: "P1"},
		{ID: "MR2", PatientID: "P2"},
	}
	got := VisibleRecords(records, Caller{Identity: "P1", Role: RolePatient})
	require.Len(t, got, 1)
	assert.Equal(t, "MR1", got[0].ID)
}

func TestVisibleRecordsMatchesNameOrID(t *testing.T) {
	got := VisibleRecords(accessFixture(), Caller{Identity: "P1", Role: RolePatient})
	ids := make([]string, 0, len(got))
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"MR1", "MR3"}, ids)

	byName := VisibleRecords(accessFixture(), Caller{Identity: "Bob", Role: RolePatient})
	require.Len(t, byName, 1)
	assert.Equal(t, "MR2", byName[0].ID)
}

func TestVisibleRecordsIgnoresStatus(t *testing.T) {
	got := VisibleRecords(accessFixture(), Caller{Identity: "P2", Role: RolePatient})
	require.Len(t, got, 1)
	assert.Equal(t, RecordStatusArchived, got[0].Status)
}

func TestVisibleRecordsNonPatientSeesAll(t *testing.T) {
	records := accessFixture()
	for _, role := range []Role{RoleDoctor, RoleAdmin, RoleNurse, RolePharmacist, Role("auditor")} {
		assert.Equal(t, records, VisibleRecords(records, Caller{Identity: "someone", Role: role}), "role %s", role)
	}
}

func TestVisibleRecordsUnknownPatientSeesNothing(t *testing.T) {
	got := VisibleRecords(accessFixture(), Caller{Identity: "P9", Role: RolePatient})
	assert.Empty(t, got)
}

func TestVisiblePrescriptions(t *testing.T) {
	prescriptions := []Prescription{
		{ID: "RX1", PatientID: "P1", PatientName: "Alice"},
		{ID: "RX2", PatientID: "P2", PatientName: "Bob"},
	}
	got := VisiblePrescriptions(prescriptions, Caller{Identity: "Alice", Role: RolePatient})
	require.Len(t, got, 1)
	assert.Equal(t, "RX1", got[0].ID)
	assert.Len(t, VisiblePrescriptions(prescriptions, Caller{Identity: "dr", Role: RoleDoctor}), 2)
}

func TestIsRecordOwner(t *testing.T) {
	record := MedicalRecord{ID: "MR1", PatientID: "P1", DoctorName: "Dr. Chen"}
	assert.True(t, IsRecordOwner(record, "P1"))
	assert.True(t, IsRecordOwner(record, "Dr. Chen"))
	assert.False(t, IsRecordOwner(record, "P2"))
	assert.False(t, IsRecordOwner(MedicalRecord{ID: "MR2"}, ""))
}

func TestRecordQueryApply(t *testing.T) {
	records := accessFixture()

	assert.Len(t, RecordQuery{}.Apply(records), 3)

	byStatus := RecordQuery{Status: RecordStatusDraft}.Apply(records)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "MR3", byStatus[0].ID)

	byDept := RecordQuery{Department: "orthopedics"}.Apply(records)
	require.Len(t, byDept, 1)
	assert.Equal(t, "MR2", byDept[0].ID)

	bySearch := RecordQuery{Search: "  FEVER "}.Apply(records)
	require.Len(t, bySearch, 1)
	assert.Equal(t, "MR1", bySearch[0].ID)

	combined := RecordQuery{Search: "p", Status: RecordStatusActive}.Apply(records)
	require.Len(t, combined, 1)
	assert.Equal(t, "MR1", combined[0].ID)
}
