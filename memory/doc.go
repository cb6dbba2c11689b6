// Package memory is the facade of the engine: it composes the analyzer, the
// entity store, the personality engine and the session manager behind one
// API the bot layer talks to.
//
// Every operation is traced and counted; the facade owns no state of its
// own beyond the components it wires together.
package memory
