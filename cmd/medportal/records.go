package main

import (
	"context"
	"fmt"
	"medportal/pkg/domain"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func recordsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "records",
		Aliases: []string{"record"},
		Short:   "Manage medical records",
	}
	cmd.AddCommand(
		recordsListCmd(a),
		recordsGetCmd(a),
		recordsAddCmd(a),
		recordsUpdateCmd(a),
		recordsArchiveCmd(a),
		recordsDeleteCmd(a),
		recordsAttachmentsCmd(a),
	)
	return cmd
}

func recordsListCmd(a *app) *cobra.Command {
	var query domain.RecordQuery
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the records visible to the caller",
		Args:  cobra.NoArgs,
		RunE: a.run(func(_ context.Context, cmd *cobra.Command, _ []string) error {
			query.Status = domain.RecordStatus(status)
			if status != "" && !query.Status.IsValid() {
				return domain.EnumError{Entity: domain.EntityMedicalRecord, Field: "status", Value: status}
			}
			records := query.Apply(domain.VisibleRecords(a.store.ListMedicalRecords(), a.caller()))
			return printJSON(cmd.OutOrStdout(), records)
		}),
	}
	cmd.Flags().StringVar(&query.Search, "search", "", "case-insensitive match on patient, diagnosis, complaint or id")
	cmd.Flags().StringVar(&status, "status", "", "only records with this status")
	cmd.Flags().StringVar(&query.Department, "department", "", "only records from this department")
	return cmd
}

// visibleRecord looks up id and hides records the caller may not see.
func (a *app) visibleRecord(id string) (domain.MedicalRecord, error) {
	record, ok := a.store.GetMedicalRecord(id)
	if ok && len(domain.VisibleRecords([]domain.MedicalRecord{record}, a.caller())) == 1 {
		return record, nil
	}
	return domain.MedicalRecord{}, domain.NotFoundError{Entity: domain.EntityMedicalRecord, ID: id}
}

func recordsGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one record",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(_ context.Context, cmd *cobra.Command, args []string) error {
			record, err := a.visibleRecord(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), record)
		}),
	}
}

type recordFlags struct {
	patientName string
	age         int
	recordType  string
	department  string
	complaint   string
	illness     string
	history     string
	exam        string
	diagnosis   string
	treatment   string
	notes       string
	doctor      string
	status      string
	attachments []string
}

func (f *recordFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.patientName, "patient-name", "", "patient display name")
	fs.IntVar(&f.age, "age", 0, "patient age")
	fs.StringVar(&f.recordType, "type", "", "outpatient, inpatient, emergency, examination or surgery")
	fs.StringVar(&f.department, "department", "", "department")
	fs.StringVar(&f.complaint, "complaint", "", "chief complaint")
	fs.StringVar(&f.illness, "present-illness", "", "history of present illness")
	fs.StringVar(&f.history, "past-history", "", "past medical history")
	fs.StringVar(&f.exam, "physical-exam", "", "physical examination")
	fs.StringVar(&f.diagnosis, "diagnosis", "", "diagnosis")
	fs.StringVar(&f.treatment, "treatment", "", "treatment plan")
	fs.StringVar(&f.notes, "notes", "", "notes")
	fs.StringVar(&f.doctor, "doctor", "", "authoring doctor")
	fs.StringVar(&f.status, "status", "", "active, draft or archived")
	fs.StringSliceVar(&f.attachments, "attach", nil, "uploaded file ids to attach")
}

// patch includes only the flags set on the command line.
func (f *recordFlags) patch(cmd *cobra.Command) domain.MedicalRecordPatch {
	var p domain.MedicalRecordPatch
	changed := cmd.Flags().Changed
	str := func(name string, v string) *string {
		if changed(name) {
			return &v
		}
		return nil
	}
	p.PatientName = str("patient-name", f.patientName)
	p.Department = str("department", f.department)
	p.ChiefComplaint = str("complaint", f.complaint)
	p.PresentIllness = str("present-illness", f.illness)
	p.PastHistory = str("past-history", f.history)
	p.PhysicalExam = str("physical-exam", f.exam)
	p.Diagnosis = str("diagnosis", f.diagnosis)
	p.Treatment = str("treatment", f.treatment)
	p.Notes = str("notes", f.notes)
	p.DoctorName = str("doctor", f.doctor)
	if changed("age") {
		p.PatientAge = domain.Ptr(f.age)
	}
	if changed("type") {
		p.RecordType = domain.Ptr(domain.RecordType(f.recordType))
	}
	if changed("status") {
		p.Status = domain.Ptr(domain.RecordStatus(f.status))
	}
	if changed("attach") {
		p.Attachments = domain.Ptr(append([]string{}, f.attachments...))
	}
	return p
}

func recordsAddCmd(a *app) *cobra.Command {
	var f recordFlags
	var id, patientID string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a record",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, _ []string) error {
			if id == "" {
				id = "MR-" + uuid.NewString()
			}
			record := domain.MedicalRecord{
				ID:             id,
				PatientID:      patientID,
				PatientName:    f.patientName,
				PatientAge:     f.age,
				RecordType:     domain.RecordType(f.recordType),
				Department:     f.department,
				ChiefComplaint: f.complaint,
				PresentIllness: f.illness,
				PastHistory:    f.history,
				PhysicalExam:   f.exam,
				Diagnosis:      f.diagnosis,
				Treatment:      f.treatment,
				Notes:          f.notes,
				Attachments:    f.attachments,
				Status:         domain.RecordStatus(f.status),
				DoctorName:     f.doctor,
			}
			if record.DoctorName == "" && a.caller().Role == domain.RoleDoctor {
				record.DoctorName = a.identity
			}
			created, err := a.store.AddMedicalRecord(ctx, record)
			if err = a.settle(err); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), created)
		}),
	}
	cmd.Flags().StringVar(&id, "id", "", "record id (generated when empty)")
	cmd.Flags().StringVar(&patientID, "patient-id", "", "patient id")
	f.bind(cmd)
	return cmd
}

func recordsUpdateCmd(a *app) *cobra.Command {
	var f recordFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Merge the given fields into a record",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			updated, err := a.store.UpdateMedicalRecord(ctx, args[0], f.patch(cmd))
			if err = a.settle(err); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), updated)
		}),
	}
	f.bind(cmd)
	return cmd
}

func recordsArchiveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "archive <id>",
		Short: "Mark a record archived",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			archived := domain.RecordStatusArchived
			updated, err := a.store.UpdateMedicalRecord(ctx, args[0], domain.MedicalRecordPatch{Status: &archived})
			if err = a.settle(err); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), updated)
		}),
	}
}

func recordsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a record (admins, its patient or its author only)",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			record, ok := a.store.GetMedicalRecord(args[0])
			if !ok {
				return nil
			}
			caller := a.caller()
			if caller.Role != domain.RoleAdmin && !domain.IsRecordOwner(record, caller.Identity) {
				return fmt.Errorf("%s may not delete medical record %s", describe(caller), record.ID)
			}
			if err := a.settle(a.store.DeleteMedicalRecord(ctx, record.ID)); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", record.ID)
			return err
		}),
	}
}

func recordsAttachmentsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "attachments <id>",
		Short: "List the uploaded files attached to a record",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(_ context.Context, cmd *cobra.Command, args []string) error {
			if _, err := a.visibleRecord(args[0]); err != nil {
				return err
			}
			files, err := a.store.Attachments(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), files)
		}),
	}
}

func describe(c domain.Caller) string {
	if c.Identity == "" {
		return string(c.Role)
	}
	return fmt.Sprintf("%s %q", c.Role, c.Identity)
}
