// Package extract runs entity finding and part-of-speech tag counting over
// the models of a modelstore.Store.
//
// Models are shared read-only. The sessions that decode with them are
// stateful, so every call checks a session out of a per-model pool (or
// builds a fresh one) and owns it exclusively until the call returns. A
// session goes back to the pool only after a clean run; sessions from runs
// that failed, panicked or were abandoned through the caller's context are
// dropped.
package extract
