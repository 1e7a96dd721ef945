package accesssync

import (
	"context"

	"github.com/google/uuid"

	"github.com/agentstation/accesssync/pkg/directory"
	"github.com/agentstation/accesssync/pkg/errors"
	"github.com/agentstation/accesssync/pkg/identity"
	"github.com/agentstation/accesssync/pkg/logging"
	"github.com/agentstation/accesssync/pkg/reconcile"
	"github.com/agentstation/accesssync/pkg/sync"
)

// Run phases, named in logs and in *errors.SyncError.
const (
	phaseConfigure    = "configure"
	phaseLock         = "lock"
	phaseLoad         = "load"
	phaseAuthenticate = "authenticate"
	phaseLookup       = "lookup"
	phaseResolve      = "resolve"
	phaseReconcile    = "reconcile"
	phaseCommit       = "commit"
)

// Sync reconciles the access document with the current group roster.
func (s *syncer) Sync(ctx context.Context, opts ...sync.Option) (*sync.Result, error) {
	// Step 0: Set context
	if ctx == nil {
		ctx = context.Background()
	}

	// Step 1: Parse and validate options
	options := sync.Defaults().Apply(s.config.defaults...).Apply(opts...)
	if err := options.Validate(); err != nil {
		return nil, errors.NewSyncError(phaseConfigure, options.Group, err)
	}

	// Step 2: Setup context with timeout
	var cancel context.CancelFunc
	if options.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
	} else {
		cancel = func() {}
	}
	defer cancel()

	// Step 3: Tag the run
	runID := uuid.NewString()
	ctx = logging.WithLogger(ctx, s.logger)
	ctx = logging.WithRunID(ctx, runID)
	ctx = logging.WithGroup(ctx, options.Group)
	ctx = logging.WithDirectory(ctx, s.directory.Name())
	ctx = logging.WithDocument(ctx, options.DocumentPath)
	logger := logging.FromContext(ctx)
	inPhase := func(phase string) context.Context {
		return logging.WithPhase(ctx, phase)
	}

	runAt := s.config.clock().UTC()
	result := &sync.Result{
		RunID:        runID,
		RunAt:        runAt,
		Directory:    s.directory.Name(),
		Group:        options.Group,
		DocumentPath: options.DocumentPath,
		DryRun:       options.DryRun,
	}

	logger.Info().Bool("dry_run", options.DryRun).Msg("Starting access sync")

	// Step 4: Hold the document lock from load through commit
	lock, err := s.store.Lock(ctx, options.DocumentPath)
	if err != nil {
		return nil, errors.NewSyncError(phaseLock, options.Group, err)
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			logger.Warn().Err(unlockErr).Msg("Failed to release document lock")
		}
	}()

	// Step 5: Load the current document, a malformed one is fatal
	current, err := s.store.Load(options.DocumentPath)
	if err != nil {
		return nil, errors.NewSyncError(phaseLoad, options.Group, err)
	}

	// Step 6: Authenticate against the directory
	if err := s.directory.Authenticate(inPhase(phaseAuthenticate)); err != nil {
		return nil, errors.NewSyncError(phaseAuthenticate, options.Group, err)
	}
	if closer, ok := s.directory.(directory.Closer); ok {
		defer func() {
			if closeErr := closer.Close(); closeErr != nil {
				logger.Warn().Err(closeErr).Msg("Failed to close directory connection")
			}
		}()
	}

	// Step 7: Fetch the roster, a failed lookup means zero members
	lookupCtx := inPhase(phaseLookup)
	records, lookupErr := s.members(lookupCtx, options.Group)
	if lookupErr != nil {
		result.LookupError = lookupErr.Error()
		logging.FromContext(lookupCtx).Warn().Err(lookupErr).Msg("Group lookup failed, continuing with zero members")
	}
	result.Members = len(records)

	// Step 8: Resolve identities and build the fresh entries
	resolved, skipped := s.resolver.ResolveAll(records)
	resolveLogger := logging.FromContext(inPhase(phaseResolve))
	for _, skip := range skipped {
		resolveLogger.Warn().
			Str("principal", skip.PrincipalName).
			Str("display_name", skip.DisplayName).
			Str("reason", skip.Reason).
			Msg("Skipping directory member")
	}
	result.Resolved = len(resolved)
	result.Skipped = skipped
	fresh := s.builder.BuildAll(resolved, runAt)

	// Step 9: Reconcile against the current document
	reconciled, err := s.engine.Reconcile(reconcile.Request{
		Current: current,
		Fresh:   fresh,
		Group:   options.Group,
		RunAt:   runAt,
	})
	if err != nil {
		return nil, errors.NewSyncError(phaseReconcile, options.Group, err)
	}
	result.Reconcile = reconciled

	logger.Info().
		Int("members", result.Members).
		Int("skipped", len(skipped)).
		Int("synced", reconciled.Summary.SyncedCount).
		Int("manual", reconciled.Summary.ManualCount).
		Int("added", len(reconciled.Added)).
		Int("removed", len(reconciled.Removed)).
		Int("updated", len(reconciled.Updated)).
		Msg("Reconciled access document")

	// Step 10: Commit unless dry run
	if options.DryRun {
		logging.FromContext(inPhase(phaseCommit)).Info().Bool("dry_run", true).Msg("Dry run completed - no changes applied")
	} else {
		commit, err := s.store.Commit(options.DocumentPath, reconciled.Document, runAt)
		if err != nil {
			return nil, errors.NewSyncError(phaseCommit, options.Group, err)
		}
		result.Commit = commit
		s.hooks.triggerMembershipChange(current, reconciled)
	}

	// Step 11: A strict lookup failure fails the completed run
	if lookupErr != nil && options.StrictLookup {
		return result, errors.NewSyncError(phaseLookup, options.Group, lookupErr)
	}

	logger.Info().Msg(result.Summary())
	return result, nil
}

// members fetches the group roster. Every failure is reported as a
// *errors.LookupError.
func (s *syncer) members(ctx context.Context, group string) ([]identity.Record, error) {
	records, err := s.directory.GroupMembers(ctx, group)
	if err == nil {
		return records, nil
	}
	if errors.IsLookup(err) {
		return nil, err
	}
	return nil, errors.NewLookupError(s.directory.Name(), group, "member lookup failed", err)
}
