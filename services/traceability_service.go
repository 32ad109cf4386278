package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/blogem/plant-maintenance/models"
	"github.com/blogem/plant-maintenance/repositories"
	"github.com/blogem/plant-maintenance/telemetry"
)

// Orphan is a stored record with no history event for its origin id
type Orphan struct {
	Kind       models.Kind `json:"kind"`
	Collection string      `json:"collection"`
	ID         string      `json:"_id"`
	NaturalID  string      `json:"natural_id"`
	AssetRef   string      `json:"id_activo_tecnico"`
	OriginID   string      `json:"id_origen"`
}

// RepairReport lists what a repair pass did
type RepairReport struct {
	Repaired int      `json:"repaired"`
	Orphans  []Orphan `json:"orphans"`
	Failed   []Orphan `json:"failed,omitempty"`
}

// TraceabilityService interface defines history queries and orphan repair
type TraceabilityService interface {
	History(ctx context.Context, filter models.EventFilter) ([]models.AuditEvent, error)
	OrphanReport(ctx context.Context) ([]Orphan, error)
	RepairOrphans(ctx context.Context, actingUser string) (*RepairReport, error)
}

// traceabilityService implements TraceabilityService interface
type traceabilityService struct {
	repos *repositories.Repositories
}

// NewTraceabilityService creates a new traceability service
func NewTraceabilityService(repos *repositories.Repositories) TraceabilityService {
	return &traceabilityService{repos: repos}
}

// History lists audit events, newest first
func (s *traceabilityService) History(ctx context.Context, filter models.EventFilter) ([]models.AuditEvent, error) {
	events, err := s.repos.Audit.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return events, nil
}

// OrphanReport finds records in every collection that no history event
// refers to, either by storage id or by the record's resolved origin id.
// Such records were written outside the audited path or lost their event to
// a partial failure. The origin match covers events written before events
// carried the storage id.
func (s *traceabilityService) OrphanReport(ctx context.Context) ([]Orphan, error) {
	recordIDs, err := s.repos.Audit.RecordIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load history records: %w", err)
	}
	origins, err := s.repos.Audit.OriginIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load history origins: %w", err)
	}

	var orphans []Orphan
	for _, kind := range models.Kinds() {
		repo, err := s.repos.For(kind)
		if err != nil {
			return nil, err
		}
		stored, err := repo.Find(ctx, nil, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", kind.Collection(), err)
		}
		for _, doc := range stored {
			origin := repo.OriginIDFor(doc)
			if recordIDs[doc.ID] || origins[origin] {
				continue
			}
			orphans = append(orphans, Orphan{
				Kind:       kind,
				Collection: kind.Collection(),
				ID:         doc.ID,
				NaturalID:  doc.Document.String(kind.NaturalIDField()),
				AssetRef:   doc.Document.String(models.FieldAssetRef),
				OriginID:   origin,
			})
		}
	}
	return orphans, nil
}

// RepairOrphans appends one repair event per orphan. Records are never
// modified; a second pass finds nothing to do.
func (s *traceabilityService) RepairOrphans(ctx context.Context, actingUser string) (*RepairReport, error) {
	orphans, err := s.OrphanReport(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(actingUser) == "" {
		actingUser = models.SystemUser
	}

	report := &RepairReport{Orphans: orphans}
	for _, o := range orphans {
		event := &models.AuditEvent{
			Kind:        models.EventKindRepair,
			AssetRef:    o.AssetRef,
			OriginID:    o.OriginID,
			RecordID:    o.ID,
			Description: fmt.Sprintf("evento reconstruido para %s %s sin historial", strings.ToLower(o.Kind.Label()), o.NaturalID),
			ActingUser:  actingUser,
		}
		if err := s.repos.Audit.Append(ctx, event); err != nil {
			slog.Error("orphan repair failed", "collection", o.Collection, "record", o.ID, "error", err)
			report.Failed = append(report.Failed, o)
			continue
		}
		telemetry.AuditEventsTotal.WithLabelValues(models.EventKindRepair).Inc()
		report.Repaired++
	}

	if report.Repaired > 0 {
		slog.Info("orphan records repaired", "repaired", report.Repaired, "failed", len(report.Failed))
	}
	return report, nil
}
