// Package http exposes the scheduler over a JSON API.
//
// Sessions are issued by POST /auth/login (alias /login) and carried in the
// `session_token` cookie, the `X-Session-Token` header or a bearer
// Authorization header. Route groups:
//   - /api/user/*: the caller's own profile, password, phone and hour stats.
//   - /api/admin/users/*: administrator account management.
//   - /api/dates/* (mirrored under /api/schedule/dates/*): attendance
//     selections, roles, time slots, confirmation and the shared admin note.
//   - /api/admin/schedule-table and friends (mirrored under
//     /api/schedule-summary): the monthly actor hour table and its CSV export.
//   - /api/schedule-special/* (mirrored under /api/admin/special/*): the
//     special reservation board with paging, search, statistics, CSV export
//     and printable PDF slips.
//   - /api/work-logs/*: daily store work logs.
//
// Error bodies share one shape, {"error_code","message","errors"}, with
// messages in Korean. Request and response DTOs live alongside their handlers.
package http
