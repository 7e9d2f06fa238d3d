package main

import (
	"context"
	"medportal/pkg/domain"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func watchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Log collection snapshots as they change until interrupted",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, _ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			log := a.logger.Named("watch")
			caller := a.caller()
			unsubs := []func(){
				a.store.SubscribeMedicalRecords(func(records []domain.MedicalRecord) {
					log.Info("snapshot", zap.String("collection", domain.CollectionMedicalRecords),
						zap.Int("visible", len(domain.VisibleRecords(records, caller))))
				}),
				a.store.SubscribePrescriptions(func(ps []domain.Prescription) {
					log.Info("snapshot", zap.String("collection", domain.CollectionPrescriptions),
						zap.Int("visible", len(domain.VisiblePrescriptions(ps, caller))))
				}),
				a.store.SubscribeUploadedFiles(func(files []domain.UploadedFile) {
					log.Info("snapshot", zap.String("collection", domain.CollectionUploadedFiles),
						zap.Int("count", len(files)))
				}),
			}
			defer func() {
				for _, unsub := range unsubs {
					unsub()
				}
			}()

			log.Info("watching",
				zap.Int(domain.CollectionMedicalRecords, len(domain.VisibleRecords(a.store.ListMedicalRecords(), caller))),
				zap.Int(domain.CollectionPrescriptions, len(domain.VisiblePrescriptions(a.store.ListPrescriptions(), caller))),
				zap.Int(domain.CollectionUploadedFiles, len(a.store.ListUploadedFiles())))
			<-ctx.Done()
			return nil
		}),
	}
}
