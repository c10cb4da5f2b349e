// Package skirmish is a small two-to-four player card game used as the
// reference rule-set for the engine.
//
// Each turn the active player goes through three phases:
//
//	draw  - draw one card; over the hand limit, discard one (interaction)
//	play  - play strikes (each opens a reaction window for counters) and
//	        optionally trade once per turn (two-step interaction)
//	score - empty bookkeeping phase that continues on its own
//
// A strike scores its power when its reaction window closes, unless it
// was countered an odd number of times. A countered striker draws a card.
// Any player may mulligan once while the first draw of a turn is pending;
// mulligans reshuffle with the match RNG. The first player to reach the
// target score wins; running out of cards ends the match on points.
package skirmish
