package api

// Status mapping:
//   malformed records and sizes -> INVALID_ARGUMENT
//   stems before the warehouse opened -> FAILED_PRECONDITION
//   sink (journal) failure, and every stem after it -> FAILED_PRECONDITION;
//     the message carries the undelivered bouquet record
//   anything else -> UNAVAILABLE
//   context expiry -> DEADLINE_EXCEEDED / CANCELED
// Auth errors are mapped by the auth interceptor.
