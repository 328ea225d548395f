// Package sim implements the iterative force simulation that positions nodes
// and the driver that reconfigures it whenever the scene inputs change.
//
// # Model
//
// A [Simulation] owns an arena of bodies indexed in node order, with parallel
// position, velocity and pin buffers. A named, ordered set of [Force] values
// acts on the arena each tick. An energy scalar (alpha) decays toward a
// target every tick; iteration stops once alpha falls below alphaMin and
// resumes when the simulation is reheated with [Simulation.Restart].
//
// One tick:
//
//  1. alpha += (alphaTarget - alpha) * alphaDecay
//  2. every force adjusts velocities (or, for centering, positions)
//  3. velocities decay and positions integrate; pinned bodies snap to their pin
//
// After every tick the simulation emits a [Frame]: an immutable copy of the
// positions. Consumers never read the arena directly.
//
// # Forces
//
//   - [Link]: springs between linked bodies toward a rest distance
//   - [ManyBody]: pairwise charge, approximated with a Barnes-Hut quadtree
//   - [Collide]: keeps circles of per-body radius from overlapping
//   - [Center]: shifts the mean position toward a point
//   - [PositionX], [PositionY]: per-body axis targets
//   - [Radial]: per-body target distance from a center
//
// # Driver
//
// The [Driver] implements the reconfiguration state machine
// (Idle → Configuring → Running → Settling → Idle): rebind nodes, clear all
// forces, unpin, let an [Engine] install its forces, bind links and reheat.
package sim
