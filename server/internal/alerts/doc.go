// Package alerts implements threshold alerting over ingested measurements.
// Rules like "temp > 30" are evaluated against every record as it arrives;
// firing and resolving alerts trigger webhook delivery to Slack, Teams, or
// generic HTTP targets.
package alerts
