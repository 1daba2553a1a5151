package physics

import "math"

// Vec2 is a plain 2D vector value. All operations return new values.
type Vec2 struct{ Xv, Yv float64 }

// V2 builds a Vec2 from its components.
func V2(x, y float64) Vec2 { return Vec2{Xv: x, Yv: y} }

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.Xv + o.Xv, v.Yv + o.Yv} }
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.Xv - o.Xv, v.Yv - o.Yv} }

// Mul scales v by s.
func (v Vec2) Mul(s float64) Vec2 { return Vec2{v.Xv * s, v.Yv * s} }

// Div divides both components by s. Division by zero yields Inf/NaN components.
func (v Vec2) Div(s float64) Vec2 { return Vec2{v.Xv / s, v.Yv / s} }

func (v Vec2) LenSq() float64 { return v.Xv*v.Xv + v.Yv*v.Yv }
func (v Vec2) Len() float64   { return math.Hypot(v.Xv, v.Yv) }

// Dist computes Euclidean distance between two points.
func (v Vec2) Dist(o Vec2) float64 { return math.Hypot(o.Xv-v.Xv, o.Yv-v.Yv) }

// IsFinite reports whether neither component is NaN or Inf.
func (v Vec2) IsFinite() bool { return isFinite(v.Xv) && isFinite(v.Yv) }

func isFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
