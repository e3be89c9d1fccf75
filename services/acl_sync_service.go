package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"acl-center/enums"
	"acl-center/repositories"

	"go.uber.org/zap"
)

// ErrSyncInProgress is returned when another sync holds the lock.
var ErrSyncInProgress = errors.New("acl sync already running")

// PermissionDiff is the difference between the declared (D) and persisted (C)
// permission sets of a role: ToAdd = D - C, ToRemove = C - D.
type PermissionDiff struct {
	ToAdd    []string `json:"new_permissions"`
	ToRemove []string `json:"remove_permissions"`
}

// Diff computes the set difference in both directions. Duplicates are ignored
// and both results are sorted.
func Diff(declared, persisted []string) PermissionDiff {
	return PermissionDiff{
		ToAdd:    subtract(declared, persisted),
		ToRemove: subtract(persisted, declared),
	}
}

func subtract(a, b []string) []string {
	exclude := make(map[string]struct{}, len(b))
	for _, v := range b {
		exclude[v] = struct{}{}
	}
	out := []string{}
	for _, v := range a {
		if _, ok := exclude[v]; ok {
			continue
		}
		exclude[v] = struct{}{}
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

func (d PermissionDiff) Unchanged() bool {
	return len(d.ToAdd) == 0 && len(d.ToRemove) == 0
}

type SyncOptions struct {
	// Sync overwrites the persisted set with the declared one. Without it only
	// missing permissions are granted and extra ones are left in place.
	Sync bool `json:"sync"`
	// Pretend computes and logs the diff without writing anything.
	Pretend bool `json:"pretend"`
}

type SyncAction string

const (
	ActionUnchanged SyncAction = "unchanged"
	ActionPretend   SyncAction = "pretend"
	ActionReplaced  SyncAction = "replaced"
	ActionGranted   SyncAction = "granted"
	// ActionKept: additive run where the role only had extra permissions.
	ActionKept SyncAction = "kept"
)

type RoleResult struct {
	Role enums.UserRole `json:"role"`
	PermissionDiff
	Action SyncAction `json:"action"`
}

type SyncReport struct {
	Options SyncOptions  `json:"options"`
	Roles   []RoleResult `json:"roles"`
}

// Changed reports whether any role differed from its declaration.
func (r *SyncReport) Changed() bool {
	for _, res := range r.Roles {
		if res.Action != ActionUnchanged {
			return true
		}
	}
	return false
}

// PermissionCache is flushed after role permissions were written.
type PermissionCache interface {
	Forget()
}

// ACLSyncService reconciles persisted role permissions with the code-declared ones.
type ACLSyncService struct {
	repo   repositories.RolePermissionRepository
	cache  PermissionCache
	logger *zap.Logger

	mu sync.Mutex
}

func NewACLSyncService(repo repositories.RolePermissionRepository, cache PermissionCache, logger *zap.Logger) *ACLSyncService {
	return &ACLSyncService{repo: repo, cache: cache, logger: logger.Named("acl")}
}

// DiffRole computes the pending changes of a single role.
func (s *ACLSyncService) DiffRole(ctx context.Context, role enums.UserRole) (PermissionDiff, error) {
	current, err := s.repo.PersistedPermissions(ctx, role)
	if err != nil {
		return PermissionDiff{}, err
	}
	return Diff(s.repo.DeclaredPermissions(role), current), nil
}

// Sync walks every declared role, reports its diff to out and applies it
// according to opts. The first store error aborts the run.
func (s *ACLSyncService) Sync(ctx context.Context, opts SyncOptions, out io.Writer) (*SyncReport, error) {
	if !s.mu.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer s.mu.Unlock()

	if out == nil {
		out = io.Discard
	}
	if opts.Pretend {
		fmt.Fprintln(out, "pretending...")
	}

	report := &SyncReport{Options: opts}
	mutated := false
	defer func() {
		if mutated && s.cache != nil {
			s.cache.Forget()
		}
	}()

	for _, role := range enums.Roles() {
		declared := s.repo.DeclaredPermissions(role)
		current, err := s.repo.PersistedPermissions(ctx, role)
		if err != nil {
			return report, fmt.Errorf("role %s: %w", role, err)
		}
		diff := Diff(declared, current)
		result := RoleResult{Role: role, PermissionDiff: diff}

		if diff.Unchanged() {
			fmt.Fprintf(out, "%s's permissions not changed\n", role)
			result.Action = ActionUnchanged
			report.Roles = append(report.Roles, result)
			continue
		}

		fmt.Fprintf(out, "%s: new permissions [%s], remove permissions [%s]\n",
			role, strings.Join(diff.ToAdd, ", "), strings.Join(diff.ToRemove, ", "))
		s.logger.Info("role has permission changes",
			zap.String("role", string(role)),
			zap.Strings("new_permissions", diff.ToAdd),
			zap.Strings("remove_permissions", diff.ToRemove),
			zap.Bool("sync", opts.Sync),
			zap.Bool("pretend", opts.Pretend),
		)

		switch {
		case opts.Pretend:
			result.Action = ActionPretend
		case opts.Sync:
			if err := s.repo.Replace(ctx, role, declared); err != nil {
				return report, fmt.Errorf("role %s: %w", role, err)
			}
			mutated = true
			result.Action = ActionReplaced
		case len(diff.ToAdd) > 0:
			if err := s.repo.Grant(ctx, role, diff.ToAdd); err != nil {
				return report, fmt.Errorf("role %s: %w", role, err)
			}
			mutated = true
			result.Action = ActionGranted
			fmt.Fprintf(out, "%s has new permissions : %s\n", role, strings.Join(diff.ToAdd, ", "))
		default:
			result.Action = ActionKept
		}
		report.Roles = append(report.Roles, result)
	}

	return report, nil
}
