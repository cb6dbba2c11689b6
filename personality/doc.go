// Package personality derives and manages per-channel personality traits.
//
// Traits live in the channel document as the adaptive block the engine
// adjusts from observed conversation, plus named presets stored as profile
// documents. The numeric traits are 0-100; derivation always clamps.
package personality
