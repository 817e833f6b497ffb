// Package checker explores a model breadth-first and evaluates its
// properties on every state it discovers.
//
// ARCHITECTURE:
//
// Arena and index:
// Every discovered state becomes a node in an append-only arena. A node
// records its state, the id of the node it was first reached from and the
// action taken. Paths are rebuilt by walking parent ids back to an initial
// node, so no node ever owns a copy of its path.
//
// Visited set and frontier:
// Both sit behind small interfaces. A single worker uses a plain map and a
// FIFO slice, which makes exploration order (and so every discovery path)
// deterministic. N workers share a sharded visited set and a blocking queue;
// check-and-insert is atomic per shard, so each state is expanded exactly
// once, but discovery paths may differ between runs.
//
// Termination:
// A run ends Exhausted when the frontier drains, DepthBounded when some
// node at the depth limit still had enabled actions, PropertyDecided when
// an Always property is violated or every property has a discovery, and
// Cancelled when the context is done.
package checker
