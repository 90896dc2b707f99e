// Package view is the windowed front end: a glfw window, a GL point-cloud
// renderer and an orbit camera. It only reads the simulation's buffers.
package view

import (
	"math"

	"github.com/charmbracelet/harmonica"
	"github.com/go-gl/mathgl/mgl32"
)

// Camera limits.
const (
	MinDistance = 20.0
	MaxDistance = 160.0
	MaxPitch    = 1.2 // radians

	autoYawRate = 0.15 // radians per second of idle drift
	zoomRate    = 1.4
	orbitRate   = 1.6

	nearPlane = 0.1
	farPlane  = 1000.0
)

// Target is the point the camera orbits: the middle of the heart curve,
// whose y range is roughly [-17, 5].
var Target = mgl32.Vec3{0, -6, 0}

// axis is one spring-smoothed camera parameter.
type axis struct {
	pos, vel, target float64
}

func (a *axis) step(s harmonica.Spring) {
	a.pos, a.vel = s.Update(a.pos, a.vel, a.target)
}

// Camera orbits Target. Inputs move the targets; Update springs the actual
// values toward them, one fixed spring step per frame.
type Camera struct {
	FOV float64 // vertical, radians

	yaw, pitch, dist axis
	spring           harmonica.Spring
	Auto             bool
}

func NewCamera(fovDegrees, distance float64, fps int) *Camera {
	if fps <= 0 {
		fps = 60
	}
	d := clampDistance(distance)
	return &Camera{
		FOV:    fovDegrees * math.Pi / 180,
		dist:   axis{pos: d, target: d},
		spring: harmonica.NewSpring(harmonica.FPS(fps), 6.0, 1.0),
		Auto:   true,
	}
}

func clampDistance(d float64) float64 {
	return math.Max(MinDistance, math.Min(MaxDistance, d))
}

// Zoom scales the target distance by exp(-dir*zoomRate*dt); dir > 0 moves in.
func (c *Camera) Zoom(dir, dt float64) {
	c.dist.target = clampDistance(c.dist.target * math.Exp(-dir*zoomRate*dt))
}

// Orbit moves the yaw and pitch targets. Any manual orbit stops the drift.
func (c *Camera) Orbit(dYaw, dPitch, dt float64) {
	if dYaw != 0 || dPitch != 0 {
		c.Auto = false
	}
	c.yaw.target += dYaw * orbitRate * dt
	c.pitch.target = math.Max(-MaxPitch, math.Min(MaxPitch, c.pitch.target+dPitch*orbitRate*dt))
}

func (c *Camera) Update(dt float64) {
	if c.Auto {
		c.yaw.target += autoYawRate * dt
	}
	c.yaw.step(c.spring)
	c.pitch.step(c.spring)
	c.dist.step(c.spring)
}

func (c *Camera) Distance() float64 { return c.dist.pos }
func (c *Camera) Yaw() float64      { return c.yaw.pos }
func (c *Camera) Pitch() float64    { return c.pitch.pos }

// Eye is the camera position in world space.
func (c *Camera) Eye() mgl32.Vec3 {
	cp := math.Cos(c.pitch.pos)
	off := mgl32.Vec3{
		float32(c.dist.pos * cp * math.Sin(c.yaw.pos)),
		float32(c.dist.pos * math.Sin(c.pitch.pos)),
		float32(c.dist.pos * cp * math.Cos(c.yaw.pos)),
	}
	return Target.Add(off)
}

// MVP is projection * view for a framebuffer of the given aspect ratio.
func (c *Camera) MVP(aspect float32) mgl32.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	proj := mgl32.Perspective(float32(c.FOV), aspect, nearPlane, farPlane)
	view := mgl32.LookAtV(c.Eye(), Target, mgl32.Vec3{0, 1, 0})
	return proj.Mul4(view)
}
