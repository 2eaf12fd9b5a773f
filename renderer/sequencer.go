package renderer

import (
	"r3d/drawqueue"
	"r3d/gpu"
)

// pass is one step of the frame. A pass whose enabled check fails is
// skipped and not reported in FrameStats.
type pass struct {
	name    string
	enabled func(r *Renderer) bool
	run     func(r *Renderer)
}

func always(*Renderer) bool { return true }

var passes = [...]pass{
	{"sort", func(r *Renderer) bool { return r.queue.Len() > 0 }, (*Renderer).sortCalls},
	{"light_batch", always, (*Renderer).buildLightBatch},
	{"shadow", (*Renderer).shadowsDue, (*Renderer).shadowPass},
	{"clear", always, (*Renderer).clearPass},
	{"geometry", func(r *Renderer) bool { return r.queue.HasDeferred() }, (*Renderer).geometryPass},
	{"ssao", (*Renderer).ssaoWanted, (*Renderer).ssaoPass},
	{"ambient", func(r *Renderer) bool { return r.queue.HasDeferred() }, (*Renderer).ambientPass},
	{"lighting", func(r *Renderer) bool { return r.queue.HasDeferred() && len(r.batch) > 0 }, (*Renderer).lightingPass},
	{"composite", func(r *Renderer) bool { return r.queue.HasDeferred() }, (*Renderer).compositePass},
	{"background", always, (*Renderer).backgroundPass},
	{"forward", func(r *Renderer) bool { return r.queue.HasForward() }, (*Renderer).forwardPass},
	{"post", always, (*Renderer).postPass},
	{"blit", always, (*Renderer).blitPass},
	{"reset", always, (*Renderer).resetState},
}

// render runs every enabled pass in order.
func (r *Renderer) render() {
	r.stats = FrameStats{
		Passes:        make([]string, 0, len(passes)),
		DeferredCalls: len(r.queue.Deferred) + len(r.queue.DeferredInstanced),
		ForwardCalls:  len(r.queue.Forward) + len(r.queue.ForwardInstanced),
	}
	r.ssaoDone = false
	for i := range passes {
		p := &passes[i]
		if !p.enabled(r) {
			continue
		}
		p.run(r)
		r.stats.Passes = append(r.stats.Passes, p.name)
	}
	r.stats.Lights = len(r.batch)
}

func (r *Renderer) sortCalls() { r.queue.Sort(r.frame.Position) }

// viewport binds fb and sets a full viewport of w x h.
func (r *Renderer) viewport(fb gpu.Framebuffer, w, h int) {
	r.dev.BindFramebuffer(fb)
	r.dev.Viewport(0, 0, w, h)
}

// clearPass resets the internal targets. The G-buffer stencil starts at
// zero so that only rasterized geometry passes the later stencil tests.
func (r *Renderer) clearPass() {
	t := r.targets
	if t.gbuf.fb != 0 {
		r.viewport(t.gbuf.fb, t.width, t.height)
		r.dev.SetColorMask(true)
		r.dev.SetDepth(gpu.DepthState{Test: true, Write: true, Func: gpu.CompareLessEqual})
		r.dev.SetStencil(gpu.StencilState{Enabled: true, Func: gpu.CompareAlways, WriteMask: 0xFF})
		r.dev.Clear(gpu.ClearState{Mask: gpu.ColorBuffer | gpu.DepthBuffer | gpu.StencilBuffer, Depth: 1})
	}
	if t.lit.fb != 0 {
		r.dev.BindFramebuffer(t.lit.fb)
		r.dev.Clear(gpu.ClearState{Mask: gpu.ColorBuffer})
	}
	if t.scene.fb != 0 {
		r.dev.BindFramebuffer(t.scene.fb)
		r.dev.Clear(gpu.ClearState{Mask: gpu.ColorBuffer})
	}
}

// resetState leaves the device as the host expects it after End.
func (r *Renderer) resetState() {
	w, h := r.dev.ScreenSize()
	r.viewport(gpu.DefaultFramebuffer, w, h)
	r.dev.SetBlend(drawqueue.BlendAlpha.BlendState())
	r.dev.SetCull(gpu.CullState{Enabled: true, Face: gpu.CullBack})
	r.dev.SetDepth(gpu.DepthState{Test: true, Write: true, Func: gpu.CompareLessEqual})
	r.dev.SetStencil(gpu.StencilState{})
	r.dev.SetScissor(false, gpu.Region{})
	r.dev.SetColorMask(true)
}
