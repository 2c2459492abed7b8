package physics

import (
	"github.com/go-gl/mathgl/mgl32"
)

const epsilon = 1e-6

// closestPointTriangle returns the point of triangle abc nearest to p.
// Voronoi region walk from Ericson, Real-Time Collision Detection 5.1.5.
func closestPointTriangle(p, a, b, c mgl32.Vec3) mgl32.Vec3 {
	ab := b.Sub(a)
	ac := c.Sub(a)
	ap := p.Sub(a)
	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}

	bp := p.Sub(b)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return a.Add(ab.Mul(v))
	}

	cp := p.Sub(c)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return a.Add(ac.Mul(w))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return b.Add(c.Sub(b).Mul(w))
	}

	denom := 1 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	return a.Add(ab.Mul(v)).Add(ac.Mul(w))
}

// closestPointsSegments returns the nearest pair of points on segments p1q1 and p2q2.
func closestPointsSegments(p1, q1, p2, q2 mgl32.Vec3) (mgl32.Vec3, mgl32.Vec3) {
	d1 := q1.Sub(p1)
	d2 := q2.Sub(p2)
	r := p1.Sub(p2)
	a := d1.Dot(d1)
	e := d2.Dot(d2)
	f := d2.Dot(r)

	var s, t float32
	switch {
	case a <= epsilon && e <= epsilon:
		return p1, p2
	case a <= epsilon:
		t = mgl32.Clamp(f/e, 0, 1)
	default:
		c := d1.Dot(r)
		if e <= epsilon {
			s = mgl32.Clamp(-c/a, 0, 1)
		} else {
			b := d1.Dot(d2)
			denom := a*e - b*b
			if denom != 0 {
				s = mgl32.Clamp((b*f-c*e)/denom, 0, 1)
			}
			t = (b*s + f) / e
			if t < 0 {
				t = 0
				s = mgl32.Clamp(-c/a, 0, 1)
			} else if t > 1 {
				t = 1
				s = mgl32.Clamp((b-c)/a, 0, 1)
			}
		}
	}
	return p1.Add(d1.Mul(s)), p2.Add(d2.Mul(t))
}

// segmentIntersectsTriangle is Moller-Trumbore restricted to the segment pq.
func segmentIntersectsTriangle(p, q, a, b, c mgl32.Vec3) (mgl32.Vec3, bool) {
	dir := q.Sub(p)
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	h := dir.Cross(e2)
	det := e1.Dot(h)
	if det > -1e-9 && det < 1e-9 {
		return mgl32.Vec3{}, false
	}
	inv := 1 / det
	s := p.Sub(a)
	u := inv * s.Dot(h)
	if u < 0 || u > 1 {
		return mgl32.Vec3{}, false
	}
	qv := s.Cross(e1)
	v := inv * dir.Dot(qv)
	if v < 0 || u+v > 1 {
		return mgl32.Vec3{}, false
	}
	t := inv * e2.Dot(qv)
	if t < 0 || t > 1 {
		return mgl32.Vec3{}, false
	}
	return p.Add(dir.Mul(t)), true
}

// closestPointsSegmentTriangle returns the nearest pair of points between
// segment pq and triangle abc, segment point first.
func closestPointsSegmentTriangle(p, q, a, b, c mgl32.Vec3) (mgl32.Vec3, mgl32.Vec3) {
	if hit, ok := segmentIntersectsTriangle(p, q, a, b, c); ok {
		return hit, hit
	}

	bestSeg, bestTri := p, closestPointTriangle(p, a, b, c)
	best := bestSeg.Sub(bestTri).LenSqr()

	consider := func(s, t mgl32.Vec3) {
		if d := s.Sub(t).LenSqr(); d < best {
			best, bestSeg, bestTri = d, s, t
		}
	}

	consider(q, closestPointTriangle(q, a, b, c))
	consider(closestPointsSegments(p, q, a, b))
	consider(closestPointsSegments(p, q, b, c))
	consider(closestPointsSegments(p, q, c, a))

	return bestSeg, bestTri
}

func triangleNormal(a, b, c mgl32.Vec3) mgl32.Vec3 {
	return safeNormalize(b.Sub(a).Cross(c.Sub(a)), Up)
}

// safeNormalize returns v/|v|, or fallback when v is too short to normalise.
func safeNormalize(v, fallback mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l < epsilon {
		return fallback
	}
	return v.Mul(1 / l)
}
