package filesmanager

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lista5/filesmanager/metrics"
)

// Reconciler brings the local file index into agreement with the object
// store listing. The object store is the source of truth.
type Reconciler struct {
	repo   FileRepo
	store  ObjectStore
	urlTTL time.Duration
}

// NewReconciler creates a Reconciler. A non-positive ttl selects DefaultURLTTL.
func NewReconciler(repo FileRepo, store ObjectStore, ttl time.Duration) *Reconciler {
	if ttl <= 0 {
		ttl = DefaultURLTTL
	}
	return &Reconciler{repo: repo, store: store, urlTTL: ttl}
}

// Plan computes the changeset that makes the index match the store:
//   - keys only in the store are inserted with a freshly signed URL
//   - names present on both sides get a freshly signed URL
//   - names only in the index are deleted
//
// Keys that cannot be stored (see IsStorableName) and keys whose signed URL
// exceeds MaxURLLength are skipped with a warning; an existing record for
// such a key is left as it is.
//
// Every surviving URL is re-signed on every pass, even if it has not expired.
// A signing failure for any key aborts the plan; nothing is written.
func (r *Reconciler) Plan(ctx context.Context) (Changeset, error) {
	objects, err := r.store.ListObjects(ctx)
	if err != nil {
		return Changeset{}, fmt.Errorf("plan: %w", err)
	}

	records, err := r.repo.List(ctx)
	if err != nil {
		return Changeset{}, fmt.Errorf("plan: %w", err)
	}

	inStore := make(map[string]struct{}, len(objects))
	keys := make([]string, 0, len(objects))
	for _, obj := range objects {
		if _, dup := inStore[obj.Key]; dup {
			continue
		}
		inStore[obj.Key] = struct{}{}
		if !IsStorableName(obj.Key) {
			slog.Warn("skipping object whose key does not fit the index", "key", obj.Key)
			continue
		}
		keys = append(keys, obj.Key)
	}

	var cs Changeset

	indexed := make(map[string]FileRecord, len(records))
	for _, rec := range records {
		if _, dup := indexed[rec.Name]; dup {
			// A second record for a name can never converge; drop it.
			cs.Deletes = append(cs.Deletes, rec.ID)
			continue
		}
		indexed[rec.Name] = rec
	}

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return Changeset{}, fmt.Errorf("plan: %w", err)
		}

		url, signErr := r.store.SignedReadURL(ctx, key, r.urlTTL)
		if signErr != nil {
			return Changeset{}, fmt.Errorf("plan '%s': %w", key, signErr)
		}

		if len(url) > MaxURLLength {
			slog.Warn("skipping object whose signed url does not fit the index", "key", key, "url_length", len(url))
			continue
		}

		if rec, ok := indexed[key]; ok {
			cs.Updates = append(cs.Updates, URLUpdate{ID: rec.ID, URL: url})
		} else {
			cs.Inserts = append(cs.Inserts, NewFile{Name: key, URL: url})
		}
	}

	for _, rec := range records {
		if _, ok := inStore[rec.Name]; ok {
			continue
		}
		if indexed[rec.Name].ID != rec.ID {
			continue // already dropped as a duplicate
		}
		cs.Deletes = append(cs.Deletes, rec.ID)
	}

	return cs, nil
}

// Sync runs a full reconciliation pass and commits the result atomically.
func (r *Reconciler) Sync(ctx context.Context) (SyncReport, error) {
	if err := ctx.Err(); err != nil {
		return SyncReport{}, fmt.Errorf("sync: %w", err)
	}

	start := time.Now()

	cs, err := r.Plan(ctx)
	if err != nil {
		metrics.RecordSync(time.Since(start), 0, 0, 0, false)
		return SyncReport{}, fmt.Errorf("sync: %w", err)
	}

	if !cs.IsEmpty() {
		if err := r.repo.Apply(ctx, cs); err != nil {
			metrics.RecordSync(time.Since(start), 0, 0, 0, false)
			return SyncReport{}, fmt.Errorf("sync: commit: %w", err)
		}
	}

	report := SyncReport{
		Added:   len(cs.Inserts),
		Updated: len(cs.Updates),
		Removed: len(cs.Deletes),
	}
	metrics.RecordSync(time.Since(start), report.Added, report.Updated, report.Removed, true)

	slog.Info("reconciled file index",
		"added", report.Added,
		"updated", report.Updated,
		"removed", report.Removed,
		"duration", time.Since(start),
	)

	return report, nil
}
