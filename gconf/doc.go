/*

Package gconf implements a configuration store intended to be used as a global,
in-database configuration.

Each package keeps a single configuration object stored under the
"_c:<package>" key. The object is read from the "conf" section of the genesis
file, validated and saved by InitConfig. Handlers read it with Load.

Not being able to get a configuration value is a critical condition for the
application and there is no recovery path for the client. Application must be
configured correctly before any operation is accepted.

*/
package gconf
