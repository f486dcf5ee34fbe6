package permission

import (
	"context"
	_ "embed"
	"os"

	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/pkg/errors"

	"github.com/epicevents/crm/core"
	"github.com/epicevents/crm/core/collaborator"
)

const policyQuery = "data.epicevents.authz.allow"

//go:embed policy.rego
var defaultPolicy string

// Policy decides whether a collaborator may act on a given row.
type Policy struct {
	query rego.PreparedEvalQuery
}

// NewPolicy compiles the object policy. conf.Policy.File, when set, replaces the built-in module.
func NewPolicy(ctx context.Context, conf *core.Config) (*Policy, error) {
	name, src := "policy.rego", defaultPolicy
	if conf != nil && conf.Policy.File != "" {
		b, err := os.ReadFile(conf.Policy.File)
		if err != nil {
			return nil, errors.Wrap(err, "reading policy file")
		}
		name, src = conf.Policy.File, string(b)
	}
	return compilePolicy(ctx, name, src)
}

func compilePolicy(ctx context.Context, name, src string) (*Policy, error) {
	pq, err := rego.New(
		rego.Query(policyQuery),
		rego.Module(name, src),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "compiling policy")
	}
	return &Policy{query: pq}, nil
}

// Allow evaluates the policy for actor doing action on obj.
func (p *Policy) Allow(ctx context.Context, actor collaborator.Collaborator, action string, obj interface{}) (bool, error) {
	o, err := ObjectOf(obj)
	if err != nil {
		return false, err
	}
	input := map[string]interface{}{
		"subject": map[string]interface{}{"id": actor.ID, "role": actor.Role},
		"action":  action,
		"object": map[string]interface{}{
			"type":             o.Type,
			"id":               o.ID,
			"sales_contact_id": o.SalesContactID,
			"support_id":       o.SupportID,
		},
	}
	rs, err := p.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, errors.Wrap(err, "evaluating policy")
	}
	return rs.Allowed(), nil
}

// Authorize is Allow returning core.ErrPermissionDenied on refusal.
func (p *Policy) Authorize(ctx context.Context, actor collaborator.Collaborator, action string, obj interface{}) error {
	ok, err := p.Allow(ctx, actor, action, obj)
	if err != nil {
		return err
	}
	if !ok {
		return core.ErrPermissionDenied
	}
	return nil
}
