// Package measure defines the measurement Record and the pure normalization
// step that derives temp/humi/light from an arbitrary producer payload.
//
// The producer is untrusted: field names vary across firmware revisions and
// values may not be numeric. Normalize tolerates both — it picks the first
// known alias per field and coerces it, producing nil (serialized as JSON
// null) when nothing usable is found. The raw payload is always preserved on
// the Record so the dashboard can fall back to displaying it verbatim.
package measure
