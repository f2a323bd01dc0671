// Package sensor generates synthetic temperature/humidity/light readings in
// the payload shape the ESP firmware posts. It exists so the agent can feed
// the server realistic-looking data without hardware attached.
package sensor
