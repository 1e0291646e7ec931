/*
The confirmd daemon reconciles payments against parsed mail notifications
and serves the payment API.

Usage:

	confirmd serve

Flags understood by confirmd:

	--config, -c  Path to the config file name.

Example:

	confirmd -c /etc/confirmd/confirmd.config.json serve
*/
package main
