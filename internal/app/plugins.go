package app

import (
	"github.com/vk/gridsweep/plugins/agent"
	"github.com/vk/gridsweep/plugins/env"
	"github.com/vk/gridsweep/plugins/policy"
	"github.com/vk/gridsweep/plugins/rlexp"
)

// corePlugins is the definitive list of all plugins that are compiled into
// the gridsweep binary. Registration order matters: category roots must be
// declared before variants trace to them, and rlexp resolves capabilities the
// other plugins declare.
var corePlugins = []Plugin{
	&env.Plugin{},
	&policy.Plugin{},
	&agent.Plugin{},
	&rlexp.Plugin{},
}
