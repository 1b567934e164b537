package track

// Constant-velocity Kalman filter over the ground plane. State is
// [x, z, vx, vz] in the camera-carrier frame (x lateral, z forward) with a
// position-only measurement. The covariance is a row-major 4×4.

// Numerical stability floor for the innovation determinant.
const minDeterminant = 1e-9

type kalmanState struct {
	X, Z, VX, VZ float64
	P            [16]float64
}

func newKalmanState(x, z, posVar, velVar float64) kalmanState {
	var s kalmanState
	s.X, s.Z = x, z
	s.P[0] = posVar
	s.P[5] = posVar
	s.P[10] = velVar
	s.P[15] = velVar
	return s
}

// predict advances the state by dt seconds and inflates the covariance with
// process noise (qPos, qVel are variances per second).
func (s *kalmanState) predict(dt, qPos, qVel float64) {
	s.X += s.VX * dt
	s.Z += s.VZ * dt

	p := &s.P
	// P = F·P·Fᵀ with F = [[1,0,dt,0],[0,1,0,dt],[0,0,1,0],[0,0,0,1]].
	p[0] += dt * (p[2] + p[8] + dt*p[10])
	p[1] += dt * (p[3] + p[9] + dt*p[11])
	p[2] += dt * p[10]
	p[3] += dt * p[11]
	p[4] += dt * (p[6] + p[12] + dt*p[14])
	p[5] += dt * (p[7] + p[13] + dt*p[15])
	p[6] += dt * p[14]
	p[7] += dt * p[15]
	p[8] += dt * p[10]
	p[9] += dt * p[11]
	p[12] += dt * p[14]
	p[13] += dt * p[15]

	p[0] += qPos * dt
	p[5] += qPos * dt
	p[10] += qVel * dt
	p[15] += qVel * dt
}

// update folds a position measurement (mx, mz) with variance r into the state.
func (s *kalmanState) update(mx, mz, r float64) {
	p := &s.P

	// Innovation covariance S = H·P·Hᵀ + R for H selecting [x, z].
	s00 := p[0] + r
	s01 := p[1]
	s10 := p[4]
	s11 := p[5] + r
	det := s00*s11 - s01*s10
	if det < minDeterminant {
		return
	}
	i00, i01 := s11/det, -s01/det
	i10, i11 := -s10/det, s00/det

	// Kalman gain K = P·Hᵀ·S⁻¹ (4×2).
	var k [8]float64
	for row := 0; row < 4; row++ {
		ph0 := p[row*4]
		ph1 := p[row*4+1]
		k[row*2] = ph0*i00 + ph1*i10
		k[row*2+1] = ph0*i01 + ph1*i11
	}

	yx := mx - s.X
	yz := mz - s.Z
	s.X += k[0]*yx + k[1]*yz
	s.Z += k[2]*yx + k[3]*yz
	s.VX += k[4]*yx + k[5]*yz
	s.VZ += k[6]*yx + k[7]*yz

	// P = (I − K·H)·P. With H selecting rows 0 and 1 this reduces to
	// P'[r][c] = P[r][c] − K[r][0]·P[0][c] − K[r][1]·P[1][c].
	var np [16]float64
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			np[row*4+col] = p[row*4+col] - k[row*2]*p[col] - k[row*2+1]*p[4+col]
		}
	}
	s.P = np
}
