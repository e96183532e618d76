package onboarding

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"

	"postpilot/internal/gateway"
	"postpilot/model"
)

// Onboarding step targets.
const (
	StepRoleSelection     = "/onboarding/role"
	StepWorkspaceCreation = "/onboarding/workspace"
)

// Planner computes the single next onboarding step from backend-reported
// progress. Lookup errors are swallowed and treated as "no match": a
// transient backend error must never strand the user, worst case they redo
// a step.
type Planner struct {
	gw *gateway.Client
}

func NewPlanner(gw *gateway.Client) *Planner {
	return &Planner{gw: gw}
}

type checkoutStatus struct {
	Verified bool `json:"verified"`
}

type subscriptionStatus struct {
	Active bool   `json:"active"`
	Status string `json:"status"`
}

// NextStep checks progress strictly in order, first match wins:
//  1. a workspace with a slug exists -> its dashboard
//  2. the supplied checkout session is verified -> workspace creation
//  3. an active subscription exists -> workspace creation
//  4. otherwise -> role selection
//
// The only error returned is the login-redirect sentinel, which must
// propagate to the app error handler.
func (p *Planner) NextStep(ctx context.Context, sess *model.Session, checkoutSessionID string) (string, error) {
	if target, err := p.existingWorkspace(ctx, sess); err != nil {
		return "", err
	} else if target != "" {
		return target, nil
	}

	if ok, err := p.checkoutVerified(ctx, sess, checkoutSessionID); err != nil {
		return "", err
	} else if ok {
		return StepWorkspaceCreation, nil
	}

	if ok, err := p.subscriptionActive(ctx, sess); err != nil {
		return "", err
	} else if ok {
		return StepWorkspaceCreation, nil
	}

	return StepRoleSelection, nil
}

func (p *Planner) existingWorkspace(ctx context.Context, sess *model.Session) (string, error) {
	res, err := p.gw.Call(ctx, sess, "/workspaces/structure", gateway.Options{})
	if errors.Is(err, gateway.ErrLoginRedirect) {
		return "", err
	}
	if err != nil || !res.Success {
		return "", nil
	}
	var structure model.Structure
	if err := json.Unmarshal(res.Data, &structure); err != nil {
		return "", nil
	}
	for _, org := range structure.Organizations {
		for _, ws := range org.Workspaces {
			if ws.Slug != "" {
				return "/" + ws.Slug, nil
			}
		}
	}
	return "", nil
}

func (p *Planner) checkoutVerified(ctx context.Context, sess *model.Session, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	endpoint := "/billing/checkout/" + url.PathEscape(id)
	res, err := p.gw.Call(ctx, sess, endpoint, gateway.Options{})
	if errors.Is(err, gateway.ErrLoginRedirect) {
		return false, err
	}
	if err != nil || !res.Success {
		return false, nil
	}
	var status checkoutStatus
	if err := json.Unmarshal(res.Data, &status); err != nil {
		return false, nil
	}
	return status.Verified, nil
}

func (p *Planner) subscriptionActive(ctx context.Context, sess *model.Session) (bool, error) {
	res, err := p.gw.Call(ctx, sess, "/billing/subscription", gateway.Options{})
	if errors.Is(err, gateway.ErrLoginRedirect) {
		return false, err
	}
	if err != nil || !res.Success {
		return false, nil
	}
	var status subscriptionStatus
	if err := json.Unmarshal(res.Data, &status); err != nil {
		return false, nil
	}
	return status.Active || status.Status == "active", nil
}
