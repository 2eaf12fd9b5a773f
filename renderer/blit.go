package renderer

import "r3d/gpu"

// letterbox fits a srcW x srcH image inside dstW x dstH keeping its aspect
// ratio, centered.
func letterbox(srcW, srcH, dstW, dstH int) gpu.Region {
	srcRatio := float32(srcW) / float32(srcH)
	dstRatio := float32(dstW) / float32(dstH)
	if srcRatio > dstRatio {
		h := int(float32(dstW)/srcRatio + 0.5)
		return gpu.Region{X: 0, Y: (dstH - h) / 2, Width: dstW, Height: h}
	}
	w := int(float32(dstH)*srcRatio + 0.5)
	return gpu.Region{X: (dstW - w) / 2, Y: 0, Width: w, Height: dstH}
}

// blitPass copies the final color and the G-buffer depth to the render
// target, or to the default framebuffer.
func (r *Renderer) blitPass() {
	t := r.targets
	src := t.post.readFB()
	if !t.post.allocated() {
		src = t.scene.fb
	}
	if src == 0 {
		return
	}

	dst := gpu.DefaultFramebuffer
	if r.target != nil {
		dst = r.target.Framebuffer
	}
	dstW, dstH := r.destinationSize()
	if dstW <= 0 || dstH <= 0 {
		return
	}
	srcRect := gpu.Region{Width: t.width, Height: t.height}
	dstRect := gpu.Region{Width: dstW, Height: dstH}
	if r.flags&FlagAspectKeep != 0 {
		dstRect = letterbox(t.width, t.height, dstW, dstH)
		if dstRect != (gpu.Region{Width: dstW, Height: dstH}) {
			r.viewport(dst, dstW, dstH)
			r.dev.SetColorMask(true)
			r.dev.Clear(gpu.ClearState{Mask: gpu.ColorBuffer | gpu.DepthBuffer, Color: [4]float32{0, 0, 0, 1}, Depth: 1})
		}
	}

	filter := gpu.FilterNearest
	if r.flags&FlagBlitLinear != 0 {
		filter = gpu.FilterLinear
	}
	r.dev.Blit(gpu.BlitDesc{
		Src:           src,
		SrcAttachment: gpu.AttachColor0,
		Dst:           dst,
		SrcRect:       srcRect,
		DstRect:       dstRect,
		Mask:          gpu.ColorBuffer,
		Filter:        filter,
	})
	if t.gbuf.fb != 0 {
		r.dev.Blit(gpu.BlitDesc{
			Src:     t.gbuf.fb,
			Dst:     dst,
			SrcRect: srcRect,
			DstRect: dstRect,
			Mask:    gpu.DepthBuffer,
			Filter:  gpu.FilterNearest,
		})
	}
}
