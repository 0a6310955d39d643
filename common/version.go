package common

const DarsigVersion = "0.1.0"
