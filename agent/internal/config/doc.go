// Package config loads and watches the agent configuration file (config.yaml).
//
// Top-level types:
//   - Config{Agent} — the `agent:` section of the shared config file; the
//     `server:` section belongs to the server binary and is ignored here
//   - AgentConfig — server_url, sample_interval, buffer_size, seed
//
// Load(path) reads the YAML file, applies defaults (http://localhost:8080,
// 10s sampling, buffer 100), then validates required fields.
//
// Watch(ctx, path, onChange) uses fsnotify to detect file changes and calls
// onChange with the newly parsed Config. It handles the rename→create pattern
// used by atomic-save editors (vim, VS Code) by re-adding the watch after
// a rename event.
package config
