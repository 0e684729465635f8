package catalog

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Add validates d, creates it in the store and reloads the result set. The
// new row is never spliced in locally, so what the caller sees afterwards is
// what the store assigned. Invalid drafts fail with ValidationFailed before
// any store call.
func (s *Session) Add(ctx context.Context, d Draft) error {
	rec, err := d.Validate()
	if err != nil {
		s.observe("add", OutcomeInvalid)
		return err
	}

	key := s.opts.NewIdempotencyKey()
	callCtx, cancel := s.callContext(ctx)
	err = s.store.Create(callCtx, rec, key)
	cancel()
	if err != nil {
		s.log.Error().Err(err).Str("item_name", rec.ItemName).Msg("catalog: create failed")
		s.observe("add", OutcomeFailed)
		return mutationError("add", "", err)
	}

	s.log.Info().Str("item_name", rec.ItemName).Str("idempotency_key", key).Msg("catalog: record created")
	s.observe("add", OutcomeOK)
	return s.Refresh(ctx)
}

// Edit sends the editable fields of p for record id and reloads the result
// set. An empty patch is a no-op.
func (s *Session) Edit(ctx context.Context, id string, p Patch) error {
	p.ID = id
	if err := p.Validate(); err != nil {
		s.observe("edit", OutcomeInvalid)
		return err
	}
	if p.Empty() {
		return nil
	}

	callCtx, cancel := s.callContext(ctx)
	results, err := s.store.Update(callCtx, []Patch{p})
	cancel()
	if err == nil {
		err = updateOutcome(results, id)
	}
	if err != nil {
		s.log.Error().Err(err).Str("id", id).Msg("catalog: update failed")
		s.observe("edit", OutcomeFailed)
		return mutationError("edit", id, err)
	}

	s.observe("edit", OutcomeOK)
	return s.Refresh(ctx)
}

func updateOutcome(results []UpdateResult, id string) error {
	for _, r := range results {
		if r.ID != id {
			continue
		}
		if r.OK {
			return nil
		}
		if r.Error == "" {
			return errors.New("update rejected")
		}
		return errors.New(r.Error)
	}
	return errors.New("store returned no result for record")
}

// Delete removes one record, drops it from the selection and reloads the
// result set.
func (s *Session) Delete(ctx context.Context, id string) error {
	callCtx, cancel := s.callContext(ctx)
	err := s.store.Delete(callCtx, id)
	cancel()
	if err != nil {
		s.log.Error().Err(err).Str("id", id).Msg("catalog: delete failed")
		s.observe("delete", OutcomeFailed)
		return mutationError("delete", id, err)
	}

	s.mu.Lock()
	s.selection.Deselect(id)
	s.mu.Unlock()

	s.observe("delete", OutcomeOK)
	return s.Refresh(ctx)
}

// BulkDelete deletes every id with one store call each. The calls run
// concurrently up to Options.BulkConcurrency, each under CallTimeout, and
// all of them are waited for: one failure never stops the others. The
// result lists which ids were deleted and which failed; BulkResult.Err
// summarises partial failure. The returned error is only set when ids is
// empty or the reload afterwards fails.
func (s *Session) BulkDelete(ctx context.Context, ids []string) (BulkResult, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		s.observe("bulk_delete", OutcomeInvalid)
		return BulkResult{}, validationError("bulk delete", map[string]string{"ids": "is required"})
	}

	errs := make([]error, len(ids))
	// A plain Group: worker errors are recorded per id and never returned,
	// so no delete is cancelled because another one failed.
	var g errgroup.Group
	g.SetLimit(s.opts.BulkConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			callCtx, cancel := s.callContext(ctx)
			defer cancel()
			errs[i] = s.store.Delete(callCtx, id)
			return nil
		})
	}
	_ = g.Wait()

	result := BulkResult{Requested: len(ids)}
	for i, id := range ids {
		if errs[i] != nil {
			result.Failed = append(result.Failed, DeleteFailure{ID: id, Err: errs[i]})
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}

	s.mu.Lock()
	for _, id := range result.Succeeded {
		s.selection.Deselect(id)
	}
	s.mu.Unlock()

	outcome := OutcomeOK
	switch {
	case len(result.Failed) == len(ids):
		outcome = OutcomeFailed
	case len(result.Failed) > 0:
		outcome = OutcomePartial
	}
	s.observe("bulk_delete", outcome)

	event := s.log.Info()
	if len(result.Failed) > 0 {
		event = s.log.Warn()
	}
	event.Int("requested", result.Requested).
		Int("deleted", len(result.Succeeded)).
		Int("failed", len(result.Failed)).
		Msg("catalog: bulk delete settled")

	return result, s.Refresh(ctx)
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
