package google

// CalendarScopes are the Google OAuth scopes the scheduler needs.
// Reading free/busy, listing events and writing events all fall under the calendar scope.
var CalendarScopes = []string{
	"https://www.googleapis.com/auth/calendar",
}
