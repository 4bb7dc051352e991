package constants

// DateFormat is the layout of a day key (YYYY-MM-DD)
const DateFormat = "2006-01-02"
