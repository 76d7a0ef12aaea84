// Package domain models the binned wind-ACF sweep: scenarios, calendar-window
// jobs, radar wind measurements, worker identities and the collaborators a
// sweep depends on.
//
// # Measurements
//
// A measurement is one specular meteor echo. The radar reports a radial
// Doppler velocity V along the unit vector K (direction cosines east, north,
// up) at a position in a local tangent plane (km) and a time (epoch seconds).
// A single echo constrains only the projection of the wind on K, so the wind
// covariance of a bin is recovered statistically from many echoes.
//
// # Grid
//
// A scenario sweeps every calendar window over a grid of times of day
// (hours, wrapping at midnight) and heights (km). Each cell is estimated
// independently from the echoes within ±dt hours of the time of day and
// ±[HeightHalfWidth] km of the height. The six ACF components are the
// independent entries of the symmetric wind covariance:
//
//	uu, vv, ww, uv, uw, vw
//
// Kinetic energy per unit mass is (uu+vv+ww)/2.
//
// # Jobs
//
// Every (year, month) pair of a scenario yields four weekly windows starting
// on days 1, 8, 15 and 22 ([DayOffsets]). Windows are read with a one hour pad
// on both sides ([WindowPad]) so that bins at the window edges see their
// neighbours.
package domain
