package constant

// UtrLength is the digit count of a UPI transaction reference.
const UtrLength = 12

// FeeFreeToken is the literal the backend sends for events without a fee.
const FeeFreeToken = "free"
