// Package auth implements authentication for the two-role model:
// librarians manage the library, students see their own loans, fines
// and reservations. Login is session-based (scs with a SQLite store),
// passwords are bcrypt-hashed, and repeated failures lock the account.
//
// A student User is linked to the Member record its loans are booked
// against; a deactivated member's login carries the inactive_student
// role and can no longer sign in.
package auth
