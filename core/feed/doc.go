// Package feed implements the booking snapshot source: it downloads the
// rental platform's iCal feed and parses it into a booking.Snapshot.
//
// This is the parse/validate boundary of the system. Every event is
// converted to an explicit Booking struct and validated before it enters
// a snapshot; invalid or malformed records are rejected here, one at a
// time, so downstream components never see partial data. A failure to
// fetch or parse the feed as a whole is an explicit error and never
// degrades to an empty snapshot.
package feed
