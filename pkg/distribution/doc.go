/*
Package distribution provides the numeric engine behind constrained random
value generation: samplers for uniform, normal ("bell" / "z-curve") and
Student's t distributions, range-constrained wrappers with bounded retry and
clamping, and density evaluators used to draw the dashboard's curve preview.

All sampling goes through a Sampler that owns its own math/rand/v2 source, so
tests can substitute a seeded source and get fully deterministic output. No
function in this package returns an error or panics; degenerate inputs (zero
spread, inverted ranges, bad degrees of freedom) are absorbed by documented
floors and clamps instead.
*/
package distribution
