// Package store provides file-based access to chatgate's key material.
//
// KeyFileStore reads PEM key files from disk. Public keys are loaded once per
// path and cached for the life of the process, so the verification key is
// read at most once no matter how many logins are checked. Private keys are
// never cached; they are only needed by the offline signer.
//
// WriteKeypair writes a freshly generated pair as <prefix>.key (0600) and
// <prefix>.pub (0644). Files are replaced atomically via temp file + rename.
package store
