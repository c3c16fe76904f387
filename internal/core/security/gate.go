// Package security implements the canPerform gate consulted before every
// mutating POS operation. Policies are CEL expressions evaluated against
// the authenticated actor; tenants may override the default expression
// through their settings.
package security

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"tillpoint/internal/core/apperror"
	appctx "tillpoint/internal/core/context"
	"tillpoint/internal/core/tenant"
)

// POS actions checked by the gate.
const (
	ActionCheckout        = "pos.checkout"
	ActionRefund          = "pos.refund"
	ActionHoldOrder       = "pos.hold"
	ActionRecallOrder     = "pos.recall"
	ActionOpenShift       = "shift.open"
	ActionCloseShift      = "shift.close"
	ActionViewAuditTrail  = "audit.view"
	ActionManageInventory = "inventory.manage"
)

// DefaultExpr grants an action when the actor holds the matching
// permission or is an admin.
const DefaultExpr = `is_admin || action in permissions`

// Gate evaluates permission policies. Compiled programs are cached per
// expression; expressions come from tenant settings and are few.
type Gate struct {
	env *cel.Env

	mu       sync.RWMutex
	programs map[string]cel.Program
}

// NewGate builds the CEL environment for policy expressions.
// Available variables: action (string), permissions (list of string),
// roles (list of string), is_admin (bool).
func NewGate() (*Gate, error) {
	env, err := cel.NewEnv(
		cel.Variable("action", cel.StringType),
		cel.Variable("permissions", cel.ListType(cel.StringType)),
		cel.Variable("roles", cel.ListType(cel.StringType)),
		cel.Variable("is_admin", cel.BoolType),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}

	g := &Gate{
		env:      env,
		programs: make(map[string]cel.Program),
	}

	// Fail fast on a broken default.
	if _, err := g.program(DefaultExpr); err != nil {
		return nil, err
	}

	return g, nil
}

// CanPerform checks whether the actor in ctx may perform action under the
// tenant's policy. Returns an UNAUTHORIZED error when no actor is bound,
// FORBIDDEN when the policy denies.
func (g *Gate) CanPerform(ctx context.Context, action string) error {
	user := appctx.GetUser(ctx)
	if user == nil {
		return apperror.NewUnauthorized("authentication required")
	}

	expr := DefaultExpr
	if settings := tenant.GetSettings(ctx); settings.PermissionExpr != "" {
		expr = settings.PermissionExpr
	}

	prg, err := g.program(expr)
	if err != nil {
		// A tenant misconfigured expression must not lock everyone out of
		// error visibility: surface as internal, log upstream.
		return apperror.NewInternal(err).WithDetail("component", "permission_policy")
	}

	out, _, err := prg.Eval(map[string]any{
		"action":      action,
		"permissions": user.Permissions,
		"roles":       user.Roles,
		"is_admin":    user.IsAdmin,
	})
	if err != nil {
		return apperror.NewInternal(err).WithDetail("component", "permission_policy")
	}

	allowed, ok := out.Value().(bool)
	if !ok {
		return apperror.NewInternal(fmt.Errorf("policy expression returned %T, want bool", out.Value())).
			WithDetail("component", "permission_policy")
	}

	if !allowed {
		return apperror.NewForbidden("insufficient permissions").
			WithDetail("required_action", action)
	}

	return nil
}

// program returns the compiled program for expr, compiling on first use.
func (g *Gate) program(expr string) (cel.Program, error) {
	g.mu.RLock()
	prg, ok := g.programs[expr]
	g.mu.RUnlock()
	if ok {
		return prg, nil
	}

	ast, iss := g.env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("compile policy expression: %w", iss.Err())
	}

	prg, err := g.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build policy program: %w", err)
	}

	g.mu.Lock()
	g.programs[expr] = prg
	g.mu.Unlock()

	return prg, nil
}
