// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventlog

// seq is the commit order of the ledger, it breaks ties between events sharing a timestamp.
const eventTableSchema = `
create table if not exists event (
	seq integer primary key autoincrement,
	type text not null,
	grantID integer not null,
	account blob(20) not null,
	amount blob,
	timestamp integer not null
);

CREATE INDEX if not exists grantIDIndex on event(grantID);
CREATE INDEX if not exists accountIndex on event(account);
CREATE INDEX if not exists typeIndex on event(type);
CREATE INDEX if not exists timestampIndex on event(timestamp);
`
