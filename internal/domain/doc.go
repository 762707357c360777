// Package domain models citizen hazard reports and the normalized geospatial
// points derived from them.
//
// # Data Source
//
// Reports originate from the civic reporting backend's /api/reports endpoint.
// Citizens submit geotagged observations (flooding, tsunami, high waves,
// coastal damage) from mobile browsers; operators verify or reject them. The
// upstream service joins its relational and document stores per report, so
// individual fields are frequently null or inconsistently typed.
//
// # Upstream Data Conventions
//
// Coordinates:
//
//	"latitude"/"longitude" may arrive as JSON numbers, numeric strings, or
//	null depending on which client submitted the report. Records whose
//	coordinates are missing, non-numeric, non-finite, or outside
//	[-90,90]/[-180,180] are silently dropped during normalization; malformed
//	upstream data is expected and non-fatal.
//
// Categories:
//
//	Free-text labels with several known legacy spellings. "Tsunami Alert" is
//	the old submission-form label for Tsunami, and "High Waves"/"highwaves"
//	both occur because an earlier backend stripped spaces before storing.
//	Classification lower-cases the label, removes all whitespace, and looks
//	the result up in a canonical table; anything unrecognized buckets into
//	CategoryOther. See [Classify].
//
// Verification:
//
//	The "status" field is the string "verified" or "unverified". Newly
//	submitted reports default to unverified. Views show all reports unless a
//	verification criterion is set explicitly on [FilterCriteria]; verified-only
//	rendering is an opt-in toggle, not an implicit default.
//
// Intensity:
//
//	An optional "volume" field carries report intensity for heat rendering.
//	Absent or sub-unit values normalize to weight 1 so every rendered point
//	contributes at least a baseline to the density field.
package domain
