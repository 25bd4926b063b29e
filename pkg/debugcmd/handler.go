package debugcmd

import (
	"context"
	"strings"

	"github.com/tidwall/pretty"

	"github.com/compozy/overlay/pkg/logger"
	"github.com/compozy/overlay/pkg/overrides"
)

const (
	msgShowEmpty = "Debug overrides: (none)"
	msgShowTree  = "Debug overrides (memory-only):"
	msgReset     = "Debug overrides cleared; using config on disk."
)

// Recorder observes every executed command.
type Recorder interface {
	Observe(action Action, ok bool)
}

// Reply is the outcome of one command. Overrides is the tree after the command ran.
type Reply struct {
	Action    Action          `json:"action"`
	OK        bool            `json:"ok"`
	Removed   bool            `json:"removed,omitempty"`
	Path      string          `json:"path,omitempty"`
	Message   string          `json:"message"`
	Overrides overrides.Value `json:"overrides"`
}

type Handler struct {
	store    *overrides.Store
	recorder Recorder
}

type HandlerOption func(*Handler)

func WithRecorder(r Recorder) HandlerOption {
	return func(h *Handler) {
		h.recorder = r
	}
}

func NewHandler(store *overrides.Store, opts ...HandlerOption) *Handler {
	h := &Handler{store: store}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Store() *overrides.Store {
	return h.store
}

// Handle parses line and executes it. It reports false when line is not a
// /debug command; the store is untouched in that case.
func (h *Handler) Handle(ctx context.Context, line string) (Reply, bool) {
	cmd, ok := Parse(line)
	if !ok {
		return Reply{}, false
	}
	return h.Execute(ctx, cmd), true
}

func (h *Handler) Execute(ctx context.Context, cmd Command) Reply {
	reply := h.apply(cmd)
	reply.Overrides = h.store.All()
	log := logger.FromContext(ctx)
	if reply.OK {
		log.Info("Debug command applied", "action", string(cmd.Action), "path", cmd.Path)
	} else {
		log.Warn("Debug command rejected", "action", string(cmd.Action), "path", cmd.Path, "reason", reply.Message)
	}
	if h.recorder != nil {
		h.recorder.Observe(cmd.Action, reply.OK)
	}
	return reply
}

func (h *Handler) apply(cmd Command) Reply {
	reply := Reply{Action: cmd.Action, Path: cmd.Path}
	switch cmd.Action {
	case ActionShow:
		reply.OK = true
		reply.Message = renderTree(h.store.All())
	case ActionReset:
		h.store.Reset()
		reply.OK = true
		reply.Message = msgReset
	case ActionSet:
		if err := h.store.Set(cmd.Path, cmd.Value); err != nil {
			reply.Message = err.Error()
			return reply
		}
		reply.OK = true
		reply.Message = "Debug override set: " + cmd.Path + "=" + cmd.Value.String()
	case ActionUnset:
		removed, err := h.store.Unset(cmd.Path)
		if err != nil {
			reply.Message = err.Error()
			return reply
		}
		reply.OK = true
		reply.Removed = removed
		if removed {
			reply.Message = "Debug override removed: " + cmd.Path + "."
		} else {
			reply.Message = "No debug override found for " + cmd.Path + "."
		}
	default:
		reply.Message = cmd.Message
		if reply.Message == "" {
			reply.Message = usageAll
		}
	}
	return reply
}

func renderTree(tree overrides.Value) string {
	if tree.Len() == 0 {
		return msgShowEmpty
	}
	body := strings.TrimRight(string(pretty.Pretty([]byte(tree.String()))), "\n")
	return msgShowTree + "\n" + body
}
