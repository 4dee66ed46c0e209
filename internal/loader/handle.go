package loader

// HandleKind tags one step of the resolution chain.
type HandleKind int

const (
	HandleCore HandleKind = iota
	HandleOverlay
	HandleExtension
	HandleExternal
	HandleAmbient
	HandleHost
	HandleGenerated
)

func (k HandleKind) String() string {
	switch k {
	case HandleCore:
		return "core"
	case HandleOverlay:
		return "overlay"
	case HandleExtension:
		return "extension"
	case HandleExternal:
		return "external"
	case HandleAmbient:
		return "ambient"
	case HandleHost:
		return "host"
	case HandleGenerated:
		return "generated"
	default:
		return "unknown"
	}
}

// Handle is one loader in the chain for a name. Overlay is the sequence
// number of the reload that installed an overlay handle.
type Handle struct {
	Kind    HandleKind
	Loader  Loader
	Overlay uint64
}

func (h Handle) String() string {
	if h.Loader == nil {
		return h.Kind.String()
	}
	return h.Kind.String() + "(" + h.Loader.ID() + ")"
}
