package main

import (
	"flag"
	stdmath "math"
	"os"

	"github.com/go-gl/mathgl/mgl32"

	"r3d/config"
	"r3d/core"
	"r3d/drawqueue"
	"r3d/gpu"
	"r3d/internal/opengl"
	"r3d/lighting"
	"r3d/renderer"
	"r3d/scene"
)

// CameraController flies the camera with WASD/QE and looks around while
// the right mouse button is held. The arrow keys orbit the target.
type CameraController struct {
	moveSpeed  float32
	lookSpeed  float32
	orbitSpeed float32
	lastMouseX float64
	lastMouseY float64
	firstMouse bool
}

func NewCameraController() *CameraController {
	return &CameraController{
		moveSpeed:  6.0,
		lookSpeed:  0.003,
		orbitSpeed: 1.2,
		firstMouse: true,
	}
}

func (cc *CameraController) Update(window *core.Window, camera *scene.Camera, dt float32) {
	// Cap dt so a hitch does not teleport the camera
	dt = min(dt, 0.05)

	if window.IsMouseButtonPressed(1) {
		x, y := window.GetCursorPos()
		if cc.firstMouse {
			cc.lastMouseX, cc.lastMouseY = x, y
			cc.firstMouse = false
		}
		cc.look(camera, float32(x-cc.lastMouseX)*cc.lookSpeed, float32(cc.lastMouseY-y)*cc.lookSpeed)
		cc.lastMouseX, cc.lastMouseY = x, y
	} else {
		cc.firstMouse = true
	}

	forward := camera.GetForward()
	flat := mgl32.Vec3{forward[0], 0, forward[2]}
	if flat.LenSqr() > 0 {
		flat = flat.Normalize()
	}
	right := camera.GetRight()
	step := cc.moveSpeed * dt

	var move mgl32.Vec3
	if window.IsKeyPressed(core.KeyW) {
		move = move.Add(flat.Mul(step))
	}
	if window.IsKeyPressed(core.KeyS) {
		move = move.Sub(flat.Mul(step))
	}
	if window.IsKeyPressed(core.KeyD) {
		move = move.Add(right.Mul(step))
	}
	if window.IsKeyPressed(core.KeyA) {
		move = move.Sub(right.Mul(step))
	}
	if window.IsKeyPressed(core.KeyE) {
		move[1] += step
	}
	if window.IsKeyPressed(core.KeyQ) {
		move[1] -= step
	}
	camera.Translate(move)

	if window.IsKeyPressed(core.KeyLeft) {
		camera.Orbit(cc.orbitSpeed * dt)
	}
	if window.IsKeyPressed(core.KeyRight) {
		camera.Orbit(-cc.orbitSpeed * dt)
	}
}

// look turns the view direction by yaw and pitch radians, keeping the
// pitch away from the poles.
func (cc *CameraController) look(camera *scene.Camera, yaw, pitch float32) {
	dir := camera.Target.Sub(camera.Position)
	dist := dir.Len()
	if dist == 0 {
		return
	}
	dir = dir.Mul(1 / dist)

	curYaw := float32(stdmath.Atan2(float64(dir[2]), float64(dir[0])))
	curPitch := float32(stdmath.Asin(float64(dir[1])))
	curYaw += yaw
	curPitch = mgl32.Clamp(curPitch+pitch, mgl32.DegToRad(-88), mgl32.DegToRad(88))

	cy, sy := stdmath.Cos(float64(curYaw)), stdmath.Sin(float64(curYaw))
	cp, sp := stdmath.Cos(float64(curPitch)), stdmath.Sin(float64(curPitch))
	newDir := mgl32.Vec3{float32(cy * cp), float32(sp), float32(sy * cp)}
	camera.Target = camera.Position.Add(newDir.Mul(dist))
}

// keyEdge turns held keys into single presses.
type keyEdge map[int]bool

func (k keyEdge) pressed(window *core.Window, key int) bool {
	down := window.IsKeyPressed(key)
	was := k[key]
	k[key] = down
	return down && !was
}

// demoScene is everything the main loop draws.
type demoScene struct {
	graph     *scene.Scene
	crate     *scene.Mesh
	crateMat  *scene.Material
	crates    []mgl32.Mat4
	tints     []core.Color
	sprite    *scene.Sprite
	particle  *scene.Mesh
	smokeMat  *scene.Material
	spinner   *scene.Node
	lampOrbit *scene.Node
}

func uploadAll(dev gpu.Device, meshes []*scene.Mesh, textures []*scene.Texture) error {
	for _, m := range meshes {
		if err := m.Upload(dev); err != nil {
			return err
		}
	}
	for _, t := range textures {
		if err := t.Upload(dev); err != nil {
			return err
		}
	}
	return nil
}

func modelWith(mesh *scene.Mesh, mat *scene.Material) *scene.Model {
	m := scene.NewModelFromMesh(mesh)
	m.Materials[0] = mat
	return m
}

func buildScene(dev gpu.Device, modelPath string) (*demoScene, error) {
	ds := &demoScene{graph: scene.NewScene()}

	ground := scene.CreatePlane(60, 60, 8)
	cube := scene.CreateCube(1)
	sphere := scene.CreateSphere(0.5, 32, 16)
	quad := scene.CreateQuad()

	white := scene.NewSolidTexture("white", 255, 255, 255, 255)
	ember := scene.NewSolidTexture("ember", 255, 140, 60, 255)
	if err := uploadAll(dev, []*scene.Mesh{ground, cube, sphere, quad}, []*scene.Texture{white, ember}); err != nil {
		return nil, err
	}

	groundMat := scene.NewMaterial("Ground", core.Color{R: 0.45, G: 0.47, B: 0.42, A: 1})
	groundMat.Roughness.Value = 0.9
	ds.graph.AddNode(scene.NewModelNode("ground", modelWith(ground, groundMat)))

	metal := scene.NewMaterial("Metal", core.Color{R: 0.85, G: 0.80, B: 0.70, A: 1})
	metal.Metalness.Value = 1
	metal.Roughness.Value = 0.25
	plastic := scene.NewMaterial("Plastic", core.Color{R: 0.8, G: 0.15, B: 0.1, A: 1})
	plastic.Roughness.Value = 0.5
	glass := scene.NewMaterial("Glass", core.NewColor8(180, 220, 255, 96))
	glass.Roughness.Value = 0.05

	for i, mat := range []*scene.Material{metal, plastic, glass} {
		n := scene.NewModelNode(mat.Name, modelWith(sphere, mat))
		n.SetPosition(mgl32.Vec3{float32(i-1) * 1.6, 0.5, 0})
		ds.graph.AddNode(n)
	}

	ds.spinner = scene.NewModelNode("spinner", modelWith(cube, plastic))
	ds.spinner.SetPosition(mgl32.Vec3{0, 1.8, -3})
	ds.graph.AddNode(ds.spinner)
	moon := scene.NewModelNode("moon", modelWith(sphere, metal))
	moon.SetPosition(mgl32.Vec3{1.5, 0, 0})
	moon.SetScale(mgl32.Vec3{0.4, 0.4, 0.4})
	ds.spinner.AddChild(moon)

	if modelPath != "" {
		model, err := scene.LoadModel(modelPath)
		if err != nil {
			core.LogWarn("model not loaded", "path", modelPath, "err", err)
		} else if err := model.Upload(dev); err != nil {
			core.LogWarn("model upload failed", "path", modelPath, "err", err)
		} else {
			n := scene.NewModelNode("model", model)
			n.SetPosition(mgl32.Vec3{0, 0, 3})
			ds.graph.AddNode(n)
		}
	}

	// A ring of crates drawn as one instanced call
	ds.crate = cube
	ds.crateMat = scene.NewMaterial("Crate", core.ColorWhite)
	ds.crateMat.Albedo.Texture = white
	const ring = 12
	for i := 0; i < ring; i++ {
		angle := float32(i) / ring * 2 * stdmath.Pi
		pos := mgl32.Vec3{8 * float32(stdmath.Cos(float64(angle))), 0.5, 8 * float32(stdmath.Sin(float64(angle)))}
		ds.crates = append(ds.crates, mgl32.Translate3D(pos[0], pos[1], pos[2]).Mul4(mgl32.HomogRotate3DY(angle)))
		hue := float32(i) / ring
		ds.tints = append(ds.tints, core.Color{R: 0.5 + 0.5*hue, G: 0.6, B: 1 - 0.5*hue, A: 1})
	}

	ds.sprite = scene.NewSprite(ember, 1, 1)
	ds.sprite.Material.Emission.Texture = ember
	ds.sprite.Material.Emission.Color = core.Color{R: 1, G: 0.6, B: 0.3, A: 1}
	ds.sprite.Material.Emission.Value = 2

	ds.particle = quad
	ds.smokeMat = scene.NewMaterial("Smoke", core.Color{R: 0.6, G: 0.6, B: 0.6, A: 0.5})

	smoke := scene.NewNode("smoke")
	smoke.Emitter = scene.NewSmokeEmitter(256)
	smoke.SetPosition(mgl32.Vec3{-4, 0, -2})
	ds.graph.AddNode(smoke)

	ds.lampOrbit = scene.NewNode("lamp-orbit")
	ds.lampOrbit.SetPosition(mgl32.Vec3{0, 2.5, 0})
	ds.graph.AddNode(ds.lampOrbit)
	lamp := scene.NewNode("lamp")
	lamp.SetPosition(mgl32.Vec3{4, 0, 0})
	ds.lampOrbit.AddChild(lamp)

	return ds, nil
}

func (ds *demoScene) draw(r *renderer.Renderer) error {
	frustum := r.Frame().Frustum
	var err error
	ds.graph.Visible(&frustum, func(n *scene.Node, world mgl32.Mat4) {
		for i, mesh := range n.Model.Meshes {
			if e := r.DrawMesh(mesh, n.Model.MaterialFor(i), world); e != nil && err == nil {
				err = e
			}
		}
	})
	if err != nil {
		return err
	}

	if err := r.DrawMeshInstancedEx(ds.crate, ds.crateMat, ds.crates, ds.tints, len(ds.crates)); err != nil {
		return err
	}

	r.ApplyBillboardMode(drawqueue.BillboardYAxis)
	r.ApplyShadowCastMode(drawqueue.ShadowCastDisabled)
	if err := r.DrawSpriteEx(ds.sprite, mgl32.Vec3{4, 1.2, -2}, mgl32.Vec2{1, 1}, 0); err != nil {
		return err
	}
	r.ApplyBillboardMode(drawqueue.BillboardFront)
	r.ApplyBlendMode(drawqueue.BlendAlpha)
	ds.graph.Emitters(func(n *scene.Node) {
		if e := r.DrawParticleSystem(n.Emitter, ds.particle, ds.smokeMat); e != nil && err == nil {
			err = e
		}
	})
	r.ApplyBlendMode(drawqueue.BlendOpaque)
	r.ApplyBillboardMode(drawqueue.BillboardDisabled)
	r.ApplyShadowCastMode(drawqueue.ShadowCastFrontFaces)
	return err
}

func main() {
	configPath := flag.String("config", "", "TOML configuration file")
	modelPath := flag.String("model", "", "glTF, GLB or OBJ model to place in the scene")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			core.LogError("config", "path", *configPath, "err", err)
			os.Exit(1)
		}
	}
	core.Logger().SetLevel(core.ParseLevel(cfg.LogLevel))

	winCfg := core.DefaultWindowConfig()
	if cfg.Window.Width > 0 && cfg.Window.Height > 0 {
		winCfg.Width, winCfg.Height = cfg.Window.Width, cfg.Window.Height
	}
	if cfg.Window.Title != "" {
		winCfg.Title = cfg.Window.Title
	}
	winCfg.VSync = cfg.Window.VSync

	window, err := core.NewWindow(winCfg)
	if err != nil {
		core.LogError("window", "err", err)
		os.Exit(1)
	}
	defer window.Destroy()

	dev, err := opengl.NewDevice(window.GetFramebufferSize)
	if err != nil {
		core.LogError("device", "err", err)
		os.Exit(1)
	}
	defer dev.Close()

	fbW, fbH := window.GetFramebufferSize()
	r, err := renderer.Init(dev, fbW, fbH, renderer.FlagFXAA|renderer.FlagAspectKeep, cfg)
	if err != nil {
		core.LogError("renderer", "err", err)
		os.Exit(1)
	}
	defer r.Close()

	ds, err := buildScene(dev, *modelPath)
	if err != nil {
		core.LogError("scene", "err", err)
		os.Exit(1)
	}

	// ── Lights ──────────────────────────────────────────────────────────────

	sun := r.CreateLight(lighting.LightDirectional)
	r.SetLightActive(sun, true)
	r.EnableShadow(sun, 2048)
	r.SetShadowUpdateMode(sun, lighting.UpdateContinuous)

	lamp := r.CreateLight(lighting.LightOmni)
	r.SetLightColor(lamp, core.Color{R: 1, G: 0.7, B: 0.4, A: 1})
	r.SetLightEnergy(lamp, 4)
	r.SetLightRange(lamp, 10)
	r.SetLightActive(lamp, true)
	r.EnableShadow(lamp, 512)
	r.SetShadowUpdateMode(lamp, lighting.UpdateInterval)
	r.SetShadowUpdateFrequency(lamp, 100)

	spot := r.CreateLight(lighting.LightSpot)
	spotPos := mgl32.Vec3{-3, 5, 3}
	r.SetLightPosition(spot, spotPos)
	r.SetLightTarget(spot, mgl32.Vec3{})
	r.SetLightColor(spot, core.Color{R: 0.5, G: 0.7, B: 1, A: 1})
	r.SetLightEnergy(spot, 6)
	r.SetLightRange(spot, 20)
	r.SetLightInnerCutOff(spot, 15)
	r.SetLightOuterCutOff(spot, 25)
	r.SetLightActive(spot, true)
	r.EnableShadow(spot, 1024)
	r.SetShadowUpdateMode(spot, lighting.UpdateManual)

	r.SetSSAO(true)
	r.SetBloomMode(renderer.BloomAdditive)
	r.SetFogMode(renderer.FogExp2)
	r.SetTonemapMode(renderer.TonemapACES)

	camera := scene.NewCamera(mgl32.Vec3{0, 3, 9}, mgl32.Vec3{0, 0.5, 0}, 60)
	controller := NewCameraController()
	dayNight := NewDayNight()
	hud := NewHUD(winCfg.Title)
	keys := keyEdge{}

	tonemaps := []renderer.TonemapMode{renderer.TonemapLinear, renderer.TonemapReinhard, renderer.TonemapFilmic, renderer.TonemapACES}
	tonemapIdx := 3
	fogs := []renderer.FogMode{renderer.FogDisabled, renderer.FogLinear, renderer.FogExp2, renderer.FogExp}
	fogIdx := 2

	last := window.Time()
	for !window.ShouldClose() {
		now := window.Time()
		dt := float32(now - last)
		last = now

		window.PollEvents()
		if window.IsKeyPressed(core.KeyEscape) {
			break
		}

		// ── Toggles ─────────────────────────────────────────────────────────

		if keys.pressed(window, core.Key1) {
			r.SetSSAO(!r.SSAOEnabled())
		}
		if keys.pressed(window, core.KeyB) {
			if r.BloomMode() == renderer.BloomDisabled {
				r.SetBloomMode(renderer.BloomAdditive)
			} else {
				r.SetBloomMode(renderer.BloomDisabled)
			}
		}
		if keys.pressed(window, core.KeyF) {
			fogIdx = (fogIdx + 1) % len(fogs)
			r.SetFogMode(fogs[fogIdx])
		}
		if keys.pressed(window, core.KeyT) {
			tonemapIdx = (tonemapIdx + 1) % len(tonemaps)
			r.SetTonemapMode(tonemaps[tonemapIdx])
		}
		if keys.pressed(window, core.Key2) {
			toggleFlag(r, renderer.FlagFXAA)
		}
		if keys.pressed(window, core.Key3) {
			toggleFlag(r, renderer.FlagDepthPrepass)
		}
		if keys.pressed(window, core.KeyL) {
			r.ToggleLight(lamp)
		}
		if keys.pressed(window, core.KeyO) {
			r.ToggleLight(spot)
		}
		if keys.pressed(window, core.KeyP) {
			dayNight.Active = !dayNight.Active
		}

		// Moving the spot re-renders its manual shadow map
		if window.IsKeyPressed(core.KeyUp) || window.IsKeyPressed(core.KeyDown) {
			sign := float32(1)
			if window.IsKeyPressed(core.KeyDown) {
				sign = -1
			}
			spotPos = mgl32.Rotate3DY(sign * dt).Mul3x1(spotPos)
			r.SetLightPosition(spot, spotPos)
			r.SetLightTarget(spot, mgl32.Vec3{})
			r.UpdateShadowMap(spot)
		}

		// ── Update ──────────────────────────────────────────────────────────

		controller.Update(window, camera, dt)
		dayNight.Update(dt)
		dayNight.Apply(r, sun)

		ds.spinner.Rotate(mgl32.Vec3{0, 1, 0}, dt)
		ds.lampOrbit.Rotate(mgl32.Vec3{0, 1, 0}, 0.5*dt)
		lampWorld := ds.graph.Find("lamp").WorldMatrix()
		r.SetLightPosition(lamp, lampWorld.Col(3).Vec3())
		ds.sprite.Update(0.1)
		ds.graph.Update(dt)

		if w, h := window.GetFramebufferSize(); w > 0 && h > 0 {
			if rw, rh := r.GetResolution(); w != rw || h != rh {
				if err := r.UpdateResolution(w, h); err != nil {
					core.LogWarn("resize", "width", w, "height", h, "err", err)
				}
			}
		}

		// ── Render ──────────────────────────────────────────────────────────

		if err := r.Begin(camera); err != nil {
			core.LogError("begin frame", "err", err)
			break
		}
		if err := ds.draw(r); err != nil {
			core.LogWarn("draw", "err", err)
		}
		if err := r.End(); err != nil {
			core.LogError("end frame", "err", err)
			break
		}

		hud.Update(dt, r.Stats(), dayNight)
		if hud.Dirty() {
			window.SetTitle(hud.Title())
		}
		window.SwapBuffers()
	}
}

func toggleFlag(r *renderer.Renderer, f renderer.Flags) {
	if r.HasState(f) {
		r.ClearState(f)
	} else {
		r.SetState(f)
	}
}
