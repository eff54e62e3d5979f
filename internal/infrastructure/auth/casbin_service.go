package auth

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

// DefaultModel matches route patterns with keyMatch2 and methods with a regex.
const DefaultModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && keyMatch2(r.obj, p.obj) && regexMatch(r.act, p.act)
`

type CasbinService struct{ E *casbin.Enforcer }

// NewCasbinService loads policies from the casbin_rule table. An empty modelPath uses DefaultModel.
func NewCasbinService(db *gorm.DB, modelPath string) (*CasbinService, error) {
	adp, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin adapter: %w", err)
	}

	var e *casbin.Enforcer
	if modelPath == "" {
		m, err := model.NewModelFromString(DefaultModel)
		if err != nil {
			return nil, fmt.Errorf("failed to parse casbin model: %w", err)
		}
		e, err = casbin.NewEnforcer(m, adp)
		if err != nil {
			return nil, fmt.Errorf("failed to create enforcer: %w", err)
		}
	} else {
		e, err = casbin.NewEnforcer(modelPath, adp)
		if err != nil {
			return nil, fmt.Errorf("failed to create enforcer: %w", err)
		}
	}

	if err := e.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("failed to load policies: %w", err)
	}
	return &CasbinService{E: e}, nil
}
