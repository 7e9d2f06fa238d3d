package core

import (
	"context"
	"errors"
	"fmt"
	"medportal/internal/infra/persistence/memory"
	"medportal/internal/persistence"
	"medportal/pkg/domain"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var fixedNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T, opts ...Option) (*Store, *memory.Medium) {
	t.Helper()
	medium := memory.NewMedium()
	opts = append([]Option{WithoutSampleData(), WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewStore(persistence.NewAdapter(medium, nil), opts...), medium
}

func sampleRecord(id string) domain.MedicalRecord {
	return domain.MedicalRecord{
		ID:             id,
		PatientID:      "P1",
		PatientName:    "Alice",
		PatientAge:     30,
		RecordType:     domain.RecordTypeOutpatient,
		Department:     "General",
		ChiefComplaint: "fever",
		Diagnosis:      "flu",
		Status:         domain.RecordStatusActive,
		DoctorName:     "Dr. Smith",
	}
}

func sampleFile(id string) domain.UploadedFile {
	return domain.UploadedFile{ID: id, Name: id + ".pdf", Size: 10, Type: "application/pdf"}
}

func sampleRx(id string) domain.Prescription {
	return domain.Prescription{
		ID:          id,
		PatientID:   "P1",
		PatientName: "Alice",
		Medications: []domain.Medication{{Name: "Oseltamivir", Quantity: 10, Unit: "capsule"}},
	}
}

type failingMedium struct {
	*memory.Medium
	failSet bool
}

func (f *failingMedium) Set(ctx context.Context, name, value string) error {
	if f.failSet {
		return errors.New("disk full")
	}
	return f.Medium.Set(ctx, name, value)
}

func TestAddGetAndDuplicate(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	added, err := store.AddMedicalRecord(ctx, sampleRecord("MR100"))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", added.CreatedAt)
	assert.Equal(t, []string{}, added.Attachments)

	got, ok := store.GetMedicalRecord("MR100")
	require.True(t, ok)
	assert.Equal(t, added, got)

	_, err = store.AddMedicalRecord(ctx, sampleRecord("MR100"))
	require.ErrorIs(t, err, domain.ErrDuplicateIdentity)
	var dup domain.DuplicateIdentityError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "MR100", dup.ID)
	assert.Len(t, store.ListMedicalRecords(), 1)
}

func TestUpdateMergesPatch(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	original, err := store.AddMedicalRecord(ctx, sampleRecord("MR100"))
	require.NoError(t, err)

	archived := domain.RecordStatusArchived
	updated, err := store.UpdateMedicalRecord(ctx, "MR100", domain.MedicalRecordPatch{Status: &archived})
	require.NoError(t, err)

	expected := original
	expected.Status = domain.RecordStatusArchived
	assert.Equal(t, expected, updated)
	got, _ := store.GetMedicalRecord("MR100")
	assert.Equal(t, expected, got)
}

func TestUpdateMissingIsNotFound(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.UpdateMedicalRecord(context.Background(), "nope", domain.MedicalRecordPatch{Notes: domain.Ptr("x")})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateRejectsInvalidEnumWithoutApplying(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	_, err := store.AddMedicalRecord(ctx, sampleRecord("MR1"))
	require.NoError(t, err)

	bad := domain.RecordStatus("deleted")
	_, err = store.UpdateMedicalRecord(ctx, "MR1", domain.MedicalRecordPatch{Status: &bad, Notes: domain.Ptr("changed")})
	require.ErrorIs(t, err, domain.ErrInvalidEnum)

	got, _ := store.GetMedicalRecord("MR1")
	assert.Equal(t, domain.RecordStatusActive, got.Status)
	assert.Empty(t, got.Notes)
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, medium := newTestStore(t)
	_, err := store.AddMedicalRecord(ctx, sampleRecord("MR100"))
	require.NoError(t, err)

	var notifications int
	store.SubscribeMedicalRecords(func([]domain.MedicalRecord) { notifications++ })

	require.NoError(t, store.DeleteMedicalRecord(ctx, "MR100"))
	_, ok := store.GetMedicalRecord("MR100")
	assert.False(t, ok)
	require.NoError(t, store.DeleteMedicalRecord(ctx, "MR100"))
	assert.Equal(t, 1, notifications)

	raw, found, err := medium.Get(ctx, domain.CollectionMedicalRecords)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "[]", raw)
}

func TestAddRejectsInvalidEnumBeforeMutation(t *testing.T) {
	ctx := context.Background()
	store, medium := newTestStore(t)
	record := sampleRecord("MR1")
	record.Status = "deleted"

	_, err := store.AddMedicalRecord(ctx, record)
	require.ErrorIs(t, err, domain.ErrInvalidEnum)
	assert.Empty(t, store.ListMedicalRecords())
	_, found, _ := medium.Get(ctx, domain.CollectionMedicalRecords)
	assert.False(t, found)
}

func TestAddRequiresFields(t *testing.T) {
	store, _ := newTestStore(t)
	record := sampleRecord("MR1")
	record.Diagnosis = ""
	_, err := store.AddMedicalRecord(context.Background(), record)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestAddDefaultsStatus(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	record := sampleRecord("MR1")
	record.Status = ""
	r, err := store.AddMedicalRecord(ctx, record)
	require.NoError(t, err)
	assert.Equal(t, domain.RecordStatusActive, r.Status)

	rx := sampleRx("RX1")
	rx.Medications = nil
	p, err := store.AddPrescription(ctx, rx)
	require.NoError(t, err)
	assert.Equal(t, domain.PrescriptionStatusDraft, p.Status)
	assert.Equal(t, []domain.Medication{}, p.Medications)

	f, err := store.AddUploadedFile(ctx, sampleFile("F1"))
	require.NoError(t, err)
	assert.Equal(t, domain.UploadStatusUploading, f.Status)
	assert.Equal(t, "2024-03-01", f.UploadDate)
}

func TestAttachmentsMustExist(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	record := sampleRecord("MR1")
	record.Attachments = []string{"F1"}
	_, err := store.AddMedicalRecord(ctx, record)
	require.ErrorIs(t, err, domain.ErrNotFound)
	var nf domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, domain.EntityUploadedFile, nf.Entity)

	_, err = store.AddUploadedFile(ctx, sampleFile("F1"))
	require.NoError(t, err)
	_, err = store.AddUploadedFile(ctx, sampleFile("F2"))
	require.NoError(t, err)
	_, err = store.AddMedicalRecord(ctx, record)
	require.NoError(t, err)

	_, err = store.UpdateMedicalRecord(ctx, "MR1", domain.MedicalRecordPatch{Attachments: &[]string{"F2", "F1", "F9"}})
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.UpdateMedicalRecord(ctx, "MR1", domain.MedicalRecordPatch{Attachments: &[]string{"F2", "F1"}})
	require.NoError(t, err)

	files, err := store.Attachments("MR1")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "F2", files[0].ID)
	assert.Equal(t, "F1", files[1].ID)
}

func TestDeletedFileLeavesDanglingAttachment(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	_, err := store.AddUploadedFile(ctx, sampleFile("F1"))
	require.NoError(t, err)
	record := sampleRecord("MR1")
	record.Attachments = []string{"F1"}
	_, err = store.AddMedicalRecord(ctx, record)
	require.NoError(t, err)

	require.NoError(t, store.DeleteUploadedFile(ctx, "F1"))

	got, _ := store.GetMedicalRecord("MR1")
	assert.Equal(t, []string{"F1"}, got.Attachments)
	files, err := store.Attachments("MR1")
	require.NoError(t, err)
	assert.Empty(t, files)

	_, err = store.Attachments("missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteRecordDoesNotCascade(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	_, err := store.AddUploadedFile(ctx, sampleFile("F1"))
	require.NoError(t, err)
	record := sampleRecord("MR1")
	record.Attachments = []string{"F1"}
	_, err = store.AddMedicalRecord(ctx, record)
	require.NoError(t, err)
	_, err = store.AddPrescription(ctx, sampleRx("RX1"))
	require.NoError(t, err)

	require.NoError(t, store.DeleteMedicalRecord(ctx, "MR1"))
	_, ok := store.GetUploadedFile("F1")
	assert.True(t, ok)
	_, ok = store.GetPrescription("RX1")
	assert.True(t, ok)
}

func TestMedicalRecordsByPatient(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	for i, patient := range []string{"P1", "P2", "P1"} {
		r := sampleRecord(fmt.Sprintf("MR%d", i))
		r.PatientID = patient
		_, err := store.AddMedicalRecord(ctx, r)
		require.NoError(t, err)
	}
	got := store.MedicalRecordsByPatient("P1")
	require.Len(t, got, 2)
	assert.Equal(t, "MR0", got[0].ID)
	assert.Equal(t, "MR2", got[1].ID)
	assert.Empty(t, store.MedicalRecordsByPatient("P3"))
}

func TestReturnedValuesAreCopies(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	_, err := store.AddUploadedFile(ctx, sampleFile("F1"))
	require.NoError(t, err)
	record := sampleRecord("MR1")
	record.Attachments = []string{"F1"}
	added, err := store.AddMedicalRecord(ctx, record)
	require.NoError(t, err)

	added.Attachments[0] = "mutated"
	record.Attachments[0] = "mutated"
	list := store.ListMedicalRecords()
	list[0].Attachments[0] = "mutated"

	got, _ := store.GetMedicalRecord("MR1")
	assert.Equal(t, []string{"F1"}, got.Attachments)
}

func TestPrescriptionTransitions(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	_, err := store.AddPrescription(ctx, sampleRx("RX1"))
	require.NoError(t, err)

	completed := domain.PrescriptionStatusCompleted
	_, err = store.UpdatePrescription(ctx, "RX1", domain.PrescriptionPatch{Status: &completed})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	var te domain.TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "draft", te.From)
	assert.Equal(t, "completed", te.To)

	for _, want := range []domain.PrescriptionStatus{
		domain.PrescriptionStatusIssued,
		domain.PrescriptionStatusDispensed,
		domain.PrescriptionStatusCompleted,
	} {
		p, err := store.AdvancePrescription(ctx, "RX1")
		require.NoError(t, err)
		assert.Equal(t, want, p.Status)
	}

	_, err = store.AdvancePrescription(ctx, "RX1")
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	draft := domain.PrescriptionStatusDraft
	_, err = store.UpdatePrescription(ctx, "RX1", domain.PrescriptionPatch{Status: &draft})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = store.UpdatePrescription(ctx, "RX1", domain.PrescriptionPatch{Notes: domain.Ptr("picked up")})
	require.NoError(t, err)

	_, err = store.AdvancePrescription(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPrescriptionDraftMayBeEmpty(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	rx := sampleRx("RX1")
	rx.Medications = nil
	_, err := store.AddPrescription(ctx, rx)
	require.NoError(t, err)

	_, err = store.AdvancePrescription(ctx, "RX1")
	require.ErrorIs(t, err, domain.ErrValidation)

	rx2 := sampleRx("RX2")
	rx2.Medications = nil
	rx2.Status = domain.PrescriptionStatusIssued
	_, err = store.AddPrescription(ctx, rx2)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestUploadedFileLifecycle(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	_, err := store.AddUploadedFile(ctx, sampleFile("F1"))
	require.NoError(t, err)

	_, err = store.UpdateUploadedFile(ctx, "F1", domain.UploadedFilePatch{Progress: domain.Ptr(60)})
	require.NoError(t, err)
	_, err = store.UpdateUploadedFile(ctx, "F1", domain.UploadedFilePatch{Progress: domain.Ptr(40)})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	var blocked domain.RuleViolationError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, "uploaded file F1 progress cannot drop from 60 to 40", blocked.Result.Summary())

	done := domain.UploadStatusCompleted
	f, err := store.UpdateUploadedFile(ctx, "F1", domain.UploadedFilePatch{
		Status:   &done,
		Progress: domain.Ptr(100),
		URL:      domain.Ptr("blob://F1"),
	})
	require.NoError(t, err)
	assert.Equal(t, "blob://F1", f.URL)

	uploading := domain.UploadStatusUploading
	_, err = store.UpdateUploadedFile(ctx, "F1", domain.UploadedFilePatch{Status: &uploading})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = store.UpdateUploadedFile(ctx, "missing", domain.UploadedFilePatch{})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUploadedFileCompletionRequiresFullProgress(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	_, err := store.AddUploadedFile(ctx, sampleFile("F1"))
	require.NoError(t, err)

	done := domain.UploadStatusCompleted
	_, err = store.UpdateUploadedFile(ctx, "F1", domain.UploadedFilePatch{Status: &done})
	require.ErrorIs(t, err, domain.ErrValidation)

	got, _ := store.GetUploadedFile("F1")
	assert.Equal(t, domain.UploadStatusUploading, got.Status)
}

func TestPersistenceRoundTripAcrossStores(t *testing.T) {
	ctx := context.Background()
	medium := memory.NewMedium()
	first := NewStore(persistence.NewAdapter(medium, nil), WithoutSampleData())
	_, err := first.AddUploadedFile(ctx, sampleFile("F1"))
	require.NoError(t, err)
	record := sampleRecord("MR1")
	record.Attachments = []string{"F1"}
	_, err = first.AddMedicalRecord(ctx, record)
	require.NoError(t, err)
	_, err = first.AddPrescription(ctx, sampleRx("RX1"))
	require.NoError(t, err)

	second := NewStore(persistence.NewAdapter(medium, nil))
	assert.Equal(t, first.ListMedicalRecords(), second.ListMedicalRecords())
	assert.Equal(t, first.ListPrescriptions(), second.ListPrescriptions())
	assert.Equal(t, first.ListUploadedFiles(), second.ListUploadedFiles())
}

func TestCorruptSlotFallsBack(t *testing.T) {
	ctx := context.Background()
	medium := memory.NewMedium()
	require.NoError(t, medium.Set(ctx, domain.CollectionPrescriptions, "{not valid json"))

	empty := NewStore(persistence.NewAdapter(medium, nil), WithoutSampleData())
	assert.Equal(t, []domain.Prescription{}, empty.ListPrescriptions())

	seeded := NewStore(persistence.NewAdapter(medium, nil))
	assert.Equal(t, samplePrescriptions(), seeded.ListPrescriptions())
}

func TestSampleDataSeedsMissingSlotsOnly(t *testing.T) {
	ctx := context.Background()
	medium := memory.NewMedium()
	require.NoError(t, medium.Set(ctx, domain.CollectionMedicalRecords, "[]"))

	store := NewStore(persistence.NewAdapter(medium, nil))
	assert.Empty(t, store.ListMedicalRecords())
	assert.Equal(t, sampleUploadedFiles(), store.ListUploadedFiles())

	files, err := NewStore(nil).Attachments("MR001")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "F001", files[0].ID)
}

func TestSeedingIsLogged(t *testing.T) {
	ctx := context.Background()
	medium := memory.NewMedium()
	require.NoError(t, medium.Set(ctx, domain.CollectionMedicalRecords, "[]"))
	require.NoError(t, medium.Set(ctx, domain.CollectionPrescriptions, "{not valid json"))

	logCore, logs := observer.New(zap.InfoLevel)
	store := NewStore(persistence.NewAdapter(medium, nil), WithLogger(zap.New(logCore)))
	store.Preload(ctx)

	seeded := logs.FilterMessage("seeded sample data").All()
	require.Len(t, seeded, 2)
	byCollection := map[string]map[string]interface{}{}
	for _, entry := range seeded {
		fields := entry.ContextMap()
		byCollection[fields["collection"].(string)] = fields
	}
	assert.NotContains(t, byCollection, domain.CollectionMedicalRecords)
	assert.Equal(t, true, byCollection[domain.CollectionPrescriptions]["slot_present"])
	assert.Equal(t, false, byCollection[domain.CollectionUploadedFiles]["slot_present"])
	assert.Equal(t, int64(len(sampleUploadedFiles())), byCollection[domain.CollectionUploadedFiles]["items"])
}

func TestSeedSamplesAreValid(t *testing.T) {
	for _, r := range sampleMedicalRecords() {
		require.NoError(t, r.Validate(), r.ID)
	}
	for _, p := range samplePrescriptions() {
		require.NoError(t, p.Validate(), p.ID)
	}
	for _, f := range sampleUploadedFiles() {
		require.NoError(t, f.Validate(), f.ID)
	}
}

func TestSubscriberOrdering(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	var seen [][]string
	store.SubscribeUploadedFiles(func(files []domain.UploadedFile) {
		ids := make([]string, 0, len(files))
		for _, f := range files {
			ids = append(ids, f.ID)
		}
		seen = append(seen, ids)
	})

	_, err := store.AddUploadedFile(ctx, sampleFile("f1"))
	require.NoError(t, err)
	_, err = store.AddUploadedFile(ctx, sampleFile("f2"))
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"f1"}, {"f1", "f2"}}, seen)
}

func TestSubscriberMayMutateSameCollection(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	var innerErr error
	store.SubscribeUploadedFiles(func(files []domain.UploadedFile) {
		if len(files) == 1 && files[0].ID == "f1" {
			_, innerErr = store.AddUploadedFile(ctx, sampleFile("f2"))
		}
	})
	var seen [][]string
	store.SubscribeUploadedFiles(func(files []domain.UploadedFile) {
		ids := make([]string, 0, len(files))
		for _, f := range files {
			ids = append(ids, f.ID)
		}
		seen = append(seen, ids)
	})

	done := make(chan error, 1)
	go func() {
		_, err := store.AddUploadedFile(ctx, sampleFile("f1"))
		done <- err
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("add blocked while a subscriber mutated the same collection")
	}

	require.NoError(t, innerErr)
	assert.Equal(t, [][]string{{"f1"}, {"f1", "f2"}}, seen)
	assert.Len(t, store.ListUploadedFiles(), 2)
}

func TestSubscribersGetPrivateCopies(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	store.SubscribeMedicalRecords(func(records []domain.MedicalRecord) {
		records[0].Diagnosis = "tampered"
	})
	var observed string
	store.SubscribeMedicalRecords(func(records []domain.MedicalRecord) {
		observed = records[0].Diagnosis
	})
	_, err := store.AddMedicalRecord(ctx, sampleRecord("MR1"))
	require.NoError(t, err)
	assert.Equal(t, "flu", observed)
	got, _ := store.GetMedicalRecord("MR1")
	assert.Equal(t, "flu", got.Diagnosis)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	var calls int
	unsubscribe := store.SubscribePrescriptions(func([]domain.Prescription) { calls++ })

	_, err := store.AddPrescription(ctx, sampleRx("RX1"))
	require.NoError(t, err)
	unsubscribe()
	unsubscribe()
	_, err = store.AddPrescription(ctx, sampleRx("RX2"))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestFailedMutationDoesNotNotify(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	_, err := store.AddMedicalRecord(ctx, sampleRecord("MR1"))
	require.NoError(t, err)
	var calls int
	store.SubscribeMedicalRecords(func([]domain.MedicalRecord) { calls++ })

	_, err = store.AddMedicalRecord(ctx, sampleRecord("MR1"))
	require.Error(t, err)
	assert.Zero(t, calls)
}

func TestPersistenceFailureIsWarning(t *testing.T) {
	ctx := context.Background()
	medium := &failingMedium{Medium: memory.NewMedium(), failSet: true}
	metrics := &captureMetrics{}
	store := NewStore(persistence.NewAdapter(medium, nil), WithoutSampleData(), WithMetrics(metrics))

	var notified bool
	store.SubscribeMedicalRecords(func([]domain.MedicalRecord) { notified = true })

	added, err := store.AddMedicalRecord(ctx, sampleRecord("MR1"))
	require.Error(t, err)
	assert.True(t, domain.IsWarning(err))
	require.ErrorIs(t, err, domain.ErrPersistence)
	var pErr *domain.PersistenceError
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, domain.CollectionMedicalRecords, pErr.Collection)

	assert.Equal(t, "MR1", added.ID)
	_, ok := store.GetMedicalRecord("MR1")
	assert.True(t, ok)
	assert.True(t, notified)
	assert.Equal(t, 1, metrics.persistFailures[domain.CollectionMedicalRecords])
	assert.True(t, metrics.has("add_medical_record", false))

	medium.failSet = false
	_, err = store.AddMedicalRecord(ctx, sampleRecord("MR2"))
	require.NoError(t, err)
	raw, _, _ := medium.Get(ctx, domain.CollectionMedicalRecords)
	assert.Contains(t, raw, "MR1")
	assert.Contains(t, raw, "MR2")
}

func TestConcurrentAddsKeepIdentitiesUnique(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	const workers = 8
	const perWorker = 10

	var wg sync.WaitGroup
	var mu sync.Mutex
	duplicates := 0
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_, err := store.AddUploadedFile(ctx, sampleFile(fmt.Sprintf("F%d", i)))
				if errors.Is(err, domain.ErrDuplicateIdentity) {
					mu.Lock()
					duplicates++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	files := store.ListUploadedFiles()
	assert.Len(t, files, perWorker)
	assert.Equal(t, workers*perWorker-perWorker, duplicates)
	seen := map[string]bool{}
	for _, f := range files {
		assert.False(t, seen[f.ID], f.ID)
		seen[f.ID] = true
	}
}

func TestCustomRuleWarningsDoNotBlock(t *testing.T) {
	ctx := context.Background()
	engine := NewDefaultRulesEngine()
	engine.Register(warnRule{})
	store, _ := newTestStore(t, WithRulesEngine(engine))
	_, err := store.AddMedicalRecord(ctx, sampleRecord("MR1"))
	require.NoError(t, err)
}

func TestCustomRuleBlocksDelete(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	_, err := store.AddMedicalRecord(ctx, sampleRecord("MR1"))
	require.NoError(t, err)
	store.RulesEngine().Register(blockDeleteRule{})

	err = store.DeleteMedicalRecord(ctx, "MR1")
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	var blocked domain.RuleViolationError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, "block_delete", blocked.Result.Violations[0].Rule)
	_, ok := store.GetMedicalRecord("MR1")
	assert.True(t, ok)
}

type warnRule struct{}

func (warnRule) Name() string { return "warn" }

func (warnRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, c := range changes {
		res.Violations = append(res.Violations, domain.Violation{Rule: "warn", Severity: domain.SeverityWarn, Entity: c.Entity})
	}
	return res, nil
}

type blockDeleteRule struct{}

func (blockDeleteRule) Name() string { return "block_delete" }

func (blockDeleteRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, c := range changes {
		if c.Action != domain.ActionDelete {
			continue
		}
		before := c.Before.(domain.MedicalRecord)
		if _, ok := view.FindMedicalRecord(before.ID); ok {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "block_delete",
				Severity: domain.SeverityBlock,
				Message:  "records are retained",
				Entity:   c.Entity,
				EntityID: before.ID,
			})
		}
	}
	return res, nil
}

type metricsCall struct {
	op      string
	success bool
}

type captureMetrics struct {
	mu              sync.Mutex
	calls           []metricsCall
	sizes           map[string]int
	persistFailures map[string]int
}

func (c *captureMetrics) Observe(_ context.Context, op string, success bool, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, metricsCall{op: op, success: success})
}

func (c *captureMetrics) CollectionSize(collection string, size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sizes == nil {
		c.sizes = map[string]int{}
	}
	c.sizes[collection] = size
}

func (c *captureMetrics) PersistenceFailure(collection string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.persistFailures == nil {
		c.persistFailures = map[string]int{}
	}
	c.persistFailures[collection]++
}

func (c *captureMetrics) has(op string, success bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, call := range c.calls {
		if call.op == op && call.success == success {
			return true
		}
	}
	return false
}

func TestMetricsObserveOperations(t *testing.T) {
	ctx := context.Background()
	metrics := &captureMetrics{}
	store, _ := newTestStore(t, WithMetrics(metrics))
	_, err := store.AddMedicalRecord(ctx, sampleRecord("MR1"))
	require.NoError(t, err)
	_, err = store.AddMedicalRecord(ctx, sampleRecord("MR1"))
	require.Error(t, err)

	assert.True(t, metrics.has("add_medical_record", true))
	assert.True(t, metrics.has("add_medical_record", false))
	assert.Equal(t, 1, metrics.sizes[domain.CollectionMedicalRecords])
}
