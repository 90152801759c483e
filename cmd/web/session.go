package main

type sessionKey string

// gameIDSessionKey stores the id of the hosted game bound to the session cookie.
const gameIDSessionKey = sessionKey("gameID")
