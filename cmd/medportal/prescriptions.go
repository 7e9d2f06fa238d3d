package main

import (
	"context"
	"fmt"
	"medportal/pkg/domain"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func prescriptionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "prescriptions",
		Aliases: []string{"rx"},
		Short:   "Manage prescriptions",
	}
	cmd.AddCommand(
		prescriptionsListCmd(a),
		prescriptionsGetCmd(a),
		prescriptionsAddCmd(a),
		prescriptionsAdvanceCmd(a),
		prescriptionsDeleteCmd(a),
	)
	return cmd
}

func prescriptionsListCmd(a *app) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the prescriptions visible to the caller",
		Args:  cobra.NoArgs,
		RunE: a.run(func(_ context.Context, cmd *cobra.Command, _ []string) error {
			visible := domain.VisiblePrescriptions(a.store.ListPrescriptions(), a.caller())
			out := make([]domain.Prescription, 0, len(visible))
			for _, p := range visible {
				if status == "" || string(p.Status) == status {
					out = append(out, p)
				}
			}
			return printJSON(cmd.OutOrStdout(), out)
		}),
	}
	cmd.Flags().StringVar(&status, "status", "", "only prescriptions with this status")
	return cmd
}

func prescriptionsGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one prescription",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(_ context.Context, cmd *cobra.Command, args []string) error {
			p, ok := a.store.GetPrescription(args[0])
			if !ok || len(domain.VisiblePrescriptions([]domain.Prescription{p}, a.caller())) == 0 {
				return domain.NotFoundError{Entity: domain.EntityPrescription, ID: args[0]}
			}
			return printJSON(cmd.OutOrStdout(), p)
		}),
	}
}

func prescriptionsAddCmd(a *app) *cobra.Command {
	var p domain.Prescription
	var status string
	var meds []string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a prescription",
		Long: "Create a prescription. Each --medication is a comma separated list of\n" +
			"key=value pairs: name, spec, dosage, frequency, duration, quantity, unit, instructions.",
		Args: cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, _ []string) error {
			for _, raw := range meds {
				m, err := parseMedication(raw)
				if err != nil {
					return err
				}
				p.Medications = append(p.Medications, m)
			}
			if p.ID == "" {
				p.ID = "RX-" + uuid.NewString()
			}
			p.Status = domain.PrescriptionStatus(status)
			if p.DoctorName == "" && a.caller().Role == domain.RoleDoctor {
				p.DoctorName = a.identity
			}
			created, err := a.store.AddPrescription(ctx, p)
			if err = a.settle(err); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), created)
		}),
	}
	fs := cmd.Flags()
	fs.StringVar(&p.ID, "id", "", "prescription id (generated when empty)")
	fs.StringVar(&p.PatientID, "patient-id", "", "patient id")
	fs.StringVar(&p.PatientName, "patient-name", "", "patient display name")
	fs.IntVar(&p.PatientAge, "age", 0, "patient age")
	fs.StringVar(&p.Diagnosis, "diagnosis", "", "diagnosis")
	fs.StringVar(&p.Notes, "notes", "", "notes")
	fs.StringVar(&p.DoctorAdvice, "advice", "", "doctor advice")
	fs.StringVar(&p.DoctorName, "doctor", "", "prescribing doctor")
	fs.StringVar(&status, "status", "", "draft, issued, dispensed or completed")
	fs.StringArrayVar(&meds, "medication", nil, "medication line, e.g. name=Amoxicillin,dosage=500mg,quantity=21,unit=capsule")
	return cmd
}

func parseMedication(raw string) (domain.Medication, error) {
	var m domain.Medication
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return m, fmt.Errorf("medication %q: expected key=value, got %q", raw, pair)
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "name":
			m.Name = value
		case "spec", "specification":
			m.Specification = value
		case "dosage":
			m.Dosage = value
		case "frequency":
			m.Frequency = value
		case "duration":
			m.Duration = value
		case "quantity":
			q, err := strconv.Atoi(value)
			if err != nil {
				return m, fmt.Errorf("medication %q: quantity: %w", raw, err)
			}
			m.Quantity = q
		case "unit":
			m.Unit = value
		case "instructions":
			m.Instructions = value
		default:
			return m, fmt.Errorf("medication %q: unknown key %q", raw, key)
		}
	}
	if m.Name == "" {
		return m, fmt.Errorf("medication %q: name is required", raw)
	}
	return m, nil
}

func prescriptionsAdvanceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "advance <id>",
		Short: "Move a prescription to its next status",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			p, err := a.store.AdvancePrescription(ctx, args[0])
			if err = a.settle(err); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		}),
	}
}

func prescriptionsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a prescription",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			if a.caller().Role == domain.RolePatient {
				return fmt.Errorf("%s may not delete prescriptions", describe(a.caller()))
			}
			return a.settle(a.store.DeletePrescription(ctx, args[0]))
		}),
	}
}
