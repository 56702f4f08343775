// Package script turns declarative wizard definitions into stepper engines.
//
// A definition is a TOML or YAML file naming an ordered list of steps. Each
// step has an action that decides how it reports back to the engine once it
// has run: advance, go back, abort, fail, or ask the user. Steps can be
// placed relative to each other at build time (after/before) and can spawn
// further steps into the running engine when they start.
//
//	name = "pair-headset"
//
//	[[steps]]
//	id = "scan"
//	delay = "300ms"
//
//	[[steps]]
//	id = "confirm"
//	action = "prompt"
//	message = "Pair with the headset?"
//
//	  [[steps.spawn]]
//	  id = "firmware"
//	  after = "confirm"
//
// Definition.Builder produces a *stepper.Builder; Fingerprint hashes a
// resolved order so plans can be compared across edits; Discover expands
// doublestar patterns into definition files.
package script
