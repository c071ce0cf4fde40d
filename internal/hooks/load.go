package hooks

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/klauern/hubhooks/internal/config"
	"github.com/klauern/hubhooks/internal/core"
)

// Load creates the configured scripts from r and registers them with d in
// configuration order. Every script is built before anything is registered,
// so a bad entry leaves d untouched.
func Load(d *core.Dispatcher, r *Registry, deps Deps, cfgs []config.ScriptConfig) ([]core.ScriptID, error) {
	scripts := make([]core.Script, 0, len(cfgs))
	var errs error
	for _, c := range cfgs {
		hook, err := r.Create(c.Key, deps, Options(c.Options))
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		s := hook.Script()
		if c.Priority != nil {
			s.Priority = core.Priority(*c.Priority)
		}
		s.Disabled = c.Disabled
		scripts = append(scripts, s)
	}
	if errs != nil {
		return nil, errs
	}

	ids := make([]core.ScriptID, 0, len(scripts))
	for _, s := range scripts {
		id, err := d.Register(s)
		if err != nil {
			for _, loaded := range ids {
				_ = d.Unregister(loaded)
			}
			return nil, fmt.Errorf("register %s: %w", s.Name, err)
		}
		ids = append(ids, id)
	}

	deps.logger().Info("loaded bundled scripts", zap.Int("count", len(ids)))
	return ids, nil
}
