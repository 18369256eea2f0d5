// Package localcal implements calendar.Provider on a local sqlite database
// through gorm.
//
// It lets the scheduling engine run without a Google account: events,
// weekly recurring hours and their exceptions are kept in one table, and
// RRULE series are expanded with rrule-go at query time. Instance ids follow
// the Google convention of "<series id>_<UTC start>" so moved and deleted
// instances behave the same on both backends.
package localcal
